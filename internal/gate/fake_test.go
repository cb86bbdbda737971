package gate_test

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/robalyx/invitegate/internal/database/types/enum"
	"github.com/robalyx/invitegate/internal/gate"
)

type memberKey struct {
	groupID int64
	userID  int64
}

// memoryStore mirrors the conditional updates of the member ledger in memory.
type memoryStore struct {
	mu              sync.Mutex
	defaultRequired int
	settings        map[int64]*types.GroupSetting
	members         map[memberKey]*types.GroupMember
	commands        []types.AdminCommandLog
}

func newMemoryStore(defaultRequired int) *memoryStore {
	return &memoryStore{
		defaultRequired: defaultRequired,
		settings:        make(map[int64]*types.GroupSetting),
		members:         make(map[memberKey]*types.GroupMember),
	}
}

func copyMember(m *types.GroupMember) *types.GroupMember {
	c := *m
	return &c
}

func (s *memoryStore) settingsLocked(groupID int64) *types.GroupSetting {
	settings, ok := s.settings[groupID]
	if !ok {
		now := time.Now()
		settings = &types.GroupSetting{
			GroupID:         groupID,
			RequiredInvites: s.defaultRequired,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		s.settings[groupID] = settings
	}
	return settings
}

func (s *memoryStore) GetOrCreateSettings(_ context.Context, groupID int64) (*types.GroupSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *s.settingsLocked(groupID)
	return &c, nil
}

func (s *memoryStore) MarkBotAdded(_ context.Context, groupID int64) (*types.GroupSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.settingsLocked(groupID)
	settings.BotAddedAt = time.Now()

	c := *settings
	return &c, nil
}

func (s *memoryStore) SetRequired(
	_ context.Context, groupID int64, required int, entry *types.AdminCommandLog,
) (*types.GroupSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.settingsLocked(groupID)
	settings.RequiredInvites = required
	settings.UpdatedAt = time.Now()
	s.commands = append(s.commands, *entry)

	c := *settings
	return &c, nil
}

func (s *memoryStore) GetMember(_ context.Context, groupID, userID int64) (*types.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberKey{groupID, userID}]
	if !ok {
		return nil, fmt.Errorf("member %w (groupID=%d, userID=%d)", apperr.ErrNotFound, groupID, userID)
	}
	return copyMember(m), nil
}

func (s *memoryStore) CreateMember(_ context.Context, member *types.GroupMember) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey{member.GroupID, member.UserID}
	if _, ok := s.members[key]; ok {
		return false, nil
	}

	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	s.members[key] = copyMember(member)
	return true, nil
}

func (s *memoryStore) RejoinMember(
	_ context.Context, groupID, userID int64, displayName string, restricted bool,
) (*types.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberKey{groupID, userID}]
	if !ok || !m.HasLeft {
		return nil, fmt.Errorf("departed member %w", apperr.ErrNotFound)
	}

	m.HasLeft = false
	m.DisplayName = displayName
	m.IsRestricted = restricted
	return copyMember(m), nil
}

func (s *memoryStore) IncrementInvites(
	_ context.Context, groupID, inviterID int64, displayName string,
) (*types.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberKey{groupID, inviterID}]
	if !ok {
		return nil, fmt.Errorf("inviter %w", apperr.ErrNotFound)
	}

	m.InviteCount++
	m.DisplayName = displayName
	return copyMember(m), nil
}

func (s *memoryStore) update(groupID, userID int64, fn func(m *types.GroupMember)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.members[memberKey{groupID, userID}]; ok {
		fn(m)
	}
}

func (s *memoryStore) LiftRestriction(_ context.Context, groupID, userID int64) (bool, error) {
	lifted := false
	s.update(groupID, userID, func(m *types.GroupMember) {
		lifted = m.IsRestricted
		m.IsRestricted = false
	})
	return lifted, nil
}

func (s *memoryStore) Grandfather(_ context.Context, groupID, userID int64) error {
	s.update(groupID, userID, func(m *types.GroupMember) {
		m.IsRestricted = false
		m.JoinedVia = enum.JoinedViaGrandfathered
	})
	return nil
}

func (s *memoryStore) MarkLeft(_ context.Context, groupID, userID int64) error {
	s.update(groupID, userID, func(m *types.GroupMember) {
		m.HasLeft = true
		m.WelcomeMessageID = nil
		m.WelcomeChatID = nil
	})
	return nil
}

func (s *memoryStore) RestrictedMembers(_ context.Context, groupID int64) ([]types.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []types.GroupMember
	for key, m := range s.members {
		if key.groupID == groupID && m.IsRestricted && !m.HasLeft {
			result = append(result, *m)
		}
	}

	slices.SortFunc(result, func(a, b types.GroupMember) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	return result, nil
}

func (s *memoryStore) CountRestricted(ctx context.Context, groupID int64) (int, error) {
	members, err := s.RestrictedMembers(ctx, groupID)
	return len(members), err
}

func (s *memoryStore) ClaimWelcome(_ context.Context, groupID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberKey{groupID, userID}]
	if !ok || m.WelcomeMessageID != nil {
		return false, nil
	}

	claimed := int64(0)
	m.WelcomeMessageID = &claimed
	return true, nil
}

func (s *memoryStore) ConfirmWelcome(_ context.Context, groupID, userID, chatID, messageID int64) error {
	s.update(groupID, userID, func(m *types.GroupMember) {
		if m.WelcomeMessageID != nil && *m.WelcomeMessageID == 0 {
			m.WelcomeMessageID = &messageID
			m.WelcomeChatID = &chatID
		}
	})
	return nil
}

func (s *memoryStore) ReleaseWelcome(_ context.Context, groupID, userID int64) error {
	s.update(groupID, userID, func(m *types.GroupMember) {
		if m.WelcomeMessageID != nil && *m.WelcomeMessageID == 0 {
			m.WelcomeMessageID = nil
		}
	})
	return nil
}

func (s *memoryStore) ClearWelcome(_ context.Context, groupID, userID int64) error {
	s.update(groupID, userID, func(m *types.GroupMember) {
		if m.WelcomeMessageID != nil {
			claimed := int64(0)
			m.WelcomeMessageID = &claimed
			m.WelcomeChatID = nil
		}
	})
	return nil
}

func (s *memoryStore) LogCommand(_ context.Context, entry *types.AdminCommandLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, *entry)
	return nil
}

func (s *memoryStore) member(groupID, userID int64) *types.GroupMember {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberKey{groupID, userID}]
	if !ok {
		return nil
	}
	return copyMember(m)
}

type sentMessage struct {
	id int64
	gate.OutgoingMessage
}

type deletedMessage struct {
	chatID    int64
	messageID int64
}

// fakePlatform records every platform call.
type fakePlatform struct {
	mu               sync.Mutex
	nextID           int64
	restrictCalls    map[memberKey]int
	unrestrictCalls  map[memberKey]int
	sent             []sentMessage
	deleted          []deletedMessage
	unreachable      map[int64]bool
	permissionDenied bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		nextID:          1000,
		restrictCalls:   make(map[memberKey]int),
		unrestrictCalls: make(map[memberKey]int),
		unreachable:     make(map[int64]bool),
	}
}

func (p *fakePlatform) RestrictMember(_ context.Context, groupID, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.permissionDenied {
		return fmt.Errorf("not enough rights: %w", apperr.ErrPermission)
	}
	p.restrictCalls[memberKey{groupID, userID}]++
	return nil
}

func (p *fakePlatform) UnrestrictMember(_ context.Context, groupID, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.permissionDenied {
		return fmt.Errorf("not enough rights: %w", apperr.ErrPermission)
	}
	p.unrestrictCalls[memberKey{groupID, userID}]++
	return nil
}

func (p *fakePlatform) SendMessage(_ context.Context, msg gate.OutgoingMessage) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unreachable[msg.ChatID] {
		return 0, fmt.Errorf("bot can't initiate conversation: %w", apperr.ErrUnreachable)
	}

	p.nextID++
	p.sent = append(p.sent, sentMessage{id: p.nextID, OutgoingMessage: msg})
	return p.nextID, nil
}

func (p *fakePlatform) DeleteMessage(_ context.Context, chatID, messageID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.deleted = append(p.deleted, deletedMessage{chatID: chatID, messageID: messageID})
	return nil
}

func (p *fakePlatform) messagesTo(chatID int64) []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result []sentMessage
	for _, msg := range p.sent {
		if msg.ChatID == chatID {
			result = append(result, msg)
		}
	}
	return result
}

func (p *fakePlatform) restricts(groupID, userID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.restrictCalls[memberKey{groupID, userID}]
}

func (p *fakePlatform) unrestricts(groupID, userID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unrestrictCalls[memberKey{groupID, userID}]
}

func (p *fakePlatform) wasDeleted(chatID, messageID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Contains(p.deleted, deletedMessage{chatID: chatID, messageID: messageID})
}
