package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robalyx/invitegate/internal/apperr"
)

// unreachableHints are Bot API descriptions of a user who cannot be messaged privately.
var unreachableHints = []string{
	"bot can't initiate conversation",
	"bot was blocked by the user",
	"user is deactivated",
	"chat not found",
}

// permissionHints are Bot API descriptions of missing administrator rights.
var permissionHints = []string{
	"not enough rights",
	"chat_admin_required",
	"need administrator rights",
	"can't remove chat owner",
	"user is an administrator of the chat",
	"method is available only for supergroups",
}

// classify maps a Bot API failure onto the application error categories.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		// Transport failures never reached the Bot API
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrTransient, err)
	}

	description := strings.ToLower(apiErr.Message)

	switch {
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrTransient, err)
	case containsAny(description, permissionHints):
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrPermission, err)
	case apiErr.Code == http.StatusForbidden || containsAny(description, unreachableHints):
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrUnreachable, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrPermanentService, err)
	}
}

func containsAny(s string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}
