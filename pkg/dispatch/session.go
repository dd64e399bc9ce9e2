package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sipeed/tokenbot/pkg/address"
	"github.com/sipeed/tokenbot/pkg/logger"
	"github.com/sipeed/tokenbot/pkg/utils"
)

// State is a step of one analyze-and-deliver session.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateGuarding
	StateAnalyzing
	StateFormatting
	StateDelivering
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateValidating: "validating",
	StateGuarding:   "guarding",
	StateAnalyzing:  "analyzing",
	StateFormatting: "formatting",
	StateDelivering: "delivering",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Request asks for one analysis on behalf of User in ChatID.
type Request struct {
	User    string
	ChatID  string
	Address string
}

type session struct {
	d           *Dispatcher
	id          string
	req         Request
	state       State
	placeholder MessageRef
	started     time.Time
}

// Analyze runs one session to completion. It returns nil when the analysis
// was delivered and an *Error carrying the failure kind otherwise. The user
// has already been notified of any failure when Analyze returns.
func (d *Dispatcher) Analyze(ctx context.Context, req Request) error {
	s := &session{
		d:       d,
		id:      uuid.NewString(),
		req:     req,
		started: time.Now(),
	}
	return s.run(ctx)
}

func (s *session) enter(next State) {
	logger.DebugCF(component, "Session state", map[string]any{
		"session": s.id,
		"from":    s.state.String(),
		"to":      next.String(),
	})
	s.state = next
}

func (s *session) run(ctx context.Context) (err error) {
	d := s.d

	s.enter(StateValidating)
	addr := strings.TrimSpace(s.req.Address)
	if !address.IsValid(addr) {
		d.metrics.RequestRejected()
		return s.fail(ctx, KindInvalidAddress, nil)
	}
	s.req.Address = addr

	s.enter(StateGuarding)
	release, ok := d.guard.Acquire(s.req.User)
	if !ok {
		d.metrics.RequestBusy()
		return s.fail(ctx, KindAlreadyInProgress, nil)
	}
	defer release()

	d.metrics.SessionStarted()
	defer func() { d.metrics.SessionFinished(err == nil) }()

	logger.InfoCF(component, "Analysis started", map[string]any{
		"session": s.id,
		"user":    s.req.User,
		"chat_id": s.req.ChatID,
		"address": address.Short(addr),
	})

	s.enter(StateAnalyzing)
	ref, err := d.transport.SendText(ctx, s.req.ChatID, analyzingText(addr), markdown)
	if err != nil {
		return s.fail(ctx, KindDeliveryError, err)
	}
	s.placeholder = ref

	report, err := d.analyze(ctx, addr)
	if err != nil {
		return s.fail(ctx, KindAnalysisError, err)
	}

	s.enter(StateFormatting)
	payload, err := d.format(report, addr)
	if err != nil {
		return s.fail(ctx, KindFormatError, err)
	}

	s.enter(StateDelivering)
	if err := d.deliver(ctx, s.placeholder, payload); err != nil {
		return s.fail(ctx, KindDeliveryError, err)
	}

	s.enter(StateDone)
	logger.InfoCF(component, "Analysis delivered", map[string]any{
		"session":  s.id,
		"user":     s.req.User,
		"chain":    payload.Chain,
		"length":   len(payload.Text),
		"duration": time.Since(s.started).String(),
	})
	return nil
}

// fail moves the session to StateFailed, notifies the user and returns the
// terminal error. Notices replace the placeholder when one exists, except
// after a delivery failure where a fresh message is more likely to land.
func (s *session) fail(ctx context.Context, kind Kind, cause error) error {
	failedIn := s.state
	s.enter(StateFailed)

	notice := failureText(kind, s.req.Address, cause)
	var notifyErr error
	if s.placeholder.MessageID != "" && kind != KindDeliveryError {
		notifyErr = s.d.transport.EditText(ctx, s.placeholder, notice, markdown)
	} else {
		notifyErr = s.d.reply(ctx, s.req.ChatID, notice)
	}

	fields := map[string]any{
		"session": s.id,
		"user":    s.req.User,
		"kind":    kind.String(),
		"state":   failedIn.String(),
		"address": utils.Truncate(s.req.Address, 64),
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	if notifyErr != nil {
		fields["notify_error"] = notifyErr.Error()
	}
	if kind == KindInvalidAddress || kind == KindAlreadyInProgress {
		logger.InfoCF(component, "Request rejected", fields)
	} else {
		logger.ErrorCF(component, "Analysis failed", fields)
	}

	return &Error{Kind: kind, Address: s.req.Address, Err: cause}
}
