package enum

// TurnRole represents the author of a conversation turn.
//
//go:generate go tool enumer -type=TurnRole -trimprefix=TurnRole -linecomment
type TurnRole int

const (
	TurnRoleUser      TurnRole = iota // user
	TurnRoleAssistant                 // assistant
)
