package bot_test

import (
	"context"
	"sync"
	"time"

	"github.com/robalyx/invitegate/internal/ai"
	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/robalyx/invitegate/internal/gate"
)

type sentReply struct {
	chatID  int64
	replyTo int64
	text    string
}

type callbackAnswer struct {
	id    string
	text  string
	alert bool
}

// fakePlatform records every platform call.
type fakePlatform struct {
	mu        sync.Mutex
	admins    map[int64]bool
	replyErrs []error
	replies   []sentReply
	messages  []gate.OutgoingMessage
	edits     []string
	answers   []callbackAnswer
	replyCall int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{admins: make(map[int64]bool)}
}

func (p *fakePlatform) RestrictMember(context.Context, int64, int64) error   { return nil }
func (p *fakePlatform) UnrestrictMember(context.Context, int64, int64) error { return nil }
func (p *fakePlatform) DeleteMessage(context.Context, int64, int64) error    { return nil }

func (p *fakePlatform) SendMessage(_ context.Context, msg gate.OutgoingMessage) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.messages = append(p.messages, msg)
	return int64(len(p.messages)), nil
}

func (p *fakePlatform) Reply(_ context.Context, chatID, replyTo int64, text string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.replyCall++
	if len(p.replyErrs) > 0 {
		err := p.replyErrs[0]
		p.replyErrs = p.replyErrs[1:]
		if err != nil {
			return 0, err
		}
	}

	p.replies = append(p.replies, sentReply{chatID: chatID, replyTo: replyTo, text: text})
	return int64(p.replyCall), nil
}

func (p *fakePlatform) EditMessage(_ context.Context, _, _ int64, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.edits = append(p.edits, text)
	return nil
}

func (p *fakePlatform) AnswerCallback(_ context.Context, id, text string, alert bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.answers = append(p.answers, callbackAnswer{id: id, text: text, alert: alert})
	return nil
}

func (p *fakePlatform) IsAdmin(_ context.Context, _, userID int64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.admins[userID], nil
}

func (p *fakePlatform) sentReplies() []sentReply {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]sentReply(nil), p.replies...)
}

// fakeGate returns canned results and counts calls.
type fakeGate struct {
	mu sync.Mutex

	joinErr     error
	allow       bool
	messageErr  error
	status      *gate.Status
	statusErr   error
	required    int
	setErr      error
	grandfather int
	panicOnJoin bool

	joins    []gate.JoinRequest
	leaves   int
	messages int
	inits    int
}

func (g *fakeGate) InitGroup(_ context.Context, groupID int64) (*types.GroupSetting, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.inits++
	return &types.GroupSetting{GroupID: groupID, RequiredInvites: 5}, nil
}

func (g *fakeGate) Join(_ context.Context, req gate.JoinRequest) (*types.GroupMember, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.panicOnJoin {
		panic("boom")
	}

	g.joins = append(g.joins, req)
	if g.joinErr != nil {
		return nil, g.joinErr
	}
	return &types.GroupMember{GroupID: req.GroupID, UserID: req.User.ID, IsRestricted: true}, nil
}

func (g *fakeGate) Leave(context.Context, int64, int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.leaves++
	return nil
}

func (g *fakeGate) HandleMessage(context.Context, int64, gate.Person, int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.messages++
	return g.allow, g.messageErr
}

func (g *fakeGate) CheckStatus(context.Context, int64, int64) (*gate.Status, error) {
	return g.status, g.statusErr
}

func (g *fakeGate) Grandfather(context.Context, int64, int64) (int, error) {
	return g.grandfather, nil
}

func (g *fakeGate) SetRequired(_ context.Context, groupID, _ int64, required int) (*types.GroupSetting, error) {
	if g.setErr != nil {
		return nil, g.setErr
	}
	return &types.GroupSetting{GroupID: groupID, RequiredInvites: required}, nil
}

func (g *fakeGate) GroupStatus(context.Context, int64) (*gate.GroupStatus, error) {
	return &gate.GroupStatus{
		Required:   g.required,
		Restricted: 2,
		UpdatedAt:  time.Date(2025, 10, 6, 12, 30, 0, 0, time.UTC),
	}, nil
}

func (g *fakeGate) messageCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.messages
}

// fakeAssistant echoes the request.
type fakeAssistant struct {
	mu       sync.Mutex
	err      error
	requests []ai.Request
}

func (a *fakeAssistant) Respond(_ context.Context, req ai.Request) (*ai.Reply, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, req)
	if a.err != nil {
		return nil, a.err
	}
	return &ai.Reply{Text: req.Name + ", echo: " + req.Text}, nil
}

type fixedLimiter struct {
	allow bool
}

func (l fixedLimiter) Allow(context.Context, int64, int64) (bool, error) {
	return l.allow, nil
}
