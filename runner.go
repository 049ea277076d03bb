package weatherpod

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/log"
	"github.com/boat-builder/weatherpod/model"
)

// RunnerConfig wires an agent to a session store. SessionService defaults to
// an InMemorySessionService.
type RunnerConfig struct {
	AppName        string
	Agent          *Agent
	SessionService SessionService
}

// Runner executes agent turns against stored sessions and streams their
// events.
type Runner struct {
	appName  string
	agent    *Agent
	sessions SessionService
	logger   log.Logger
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Agent == nil {
		return nil, ErrAgentRequired
	}
	if cfg.AppName == "" {
		return nil, ErrAppNameRequired
	}
	sessions := cfg.SessionService
	if sessions == nil {
		sessions = NewInMemorySessionService()
	}
	return &Runner{
		appName:  cfg.AppName,
		agent:    cfg.Agent,
		sessions: sessions,
		logger:   log.Default,
	}, nil
}

func (r *Runner) AppName() string {
	return r.appName
}

func (r *Runner) Agent() *Agent {
	return r.agent
}

func (r *Runner) SessionService() SessionService {
	return r.sessions
}

func (r *Runner) SetLogger(logger log.Logger) {
	r.logger = logger
}

// Run appends msg to the session and starts the agent's turn. Events are
// stored as they are produced and then delivered on the returned channel,
// which is closed when the turn ends. Cancel ctx to stop a turn early.
func (r *Runner) Run(ctx context.Context, userID, sessionID string, msg *genai.Content) (<-chan *Event, error) {
	key := Key{AppName: r.appName, UserID: userID, SessionID: sessionID}
	sess, err := r.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	invocationID := "inv-" + uuid.NewString()
	userEvent := NewEvent(invocationID, AuthorUser)
	userEvent.Content = msg
	if err := r.sessions.AppendEvent(ctx, sess, userEvent); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	ctx = model.WithIdentity(ctx, model.Identity{AppName: r.appName, UserID: userID, SessionID: sessionID})
	inv := &Invocation{ID: invocationID, Session: sess, UserContent: msg}

	agentEvents := make(chan *Event)
	go func() {
		defer close(agentEvents)
		r.agent.Run(ctx, inv, agentEvents)
	}()

	out := make(chan *Event)
	go func() {
		defer close(out)
		for evt := range agentEvents {
			if err := r.sessions.AppendEvent(ctx, sess, evt); err != nil {
				r.logger.Errorw("Error storing event", "session", sessionID, "event", evt.ID, "error", err)
			}
			if !send(ctx, out, evt) {
				// drain so the agent goroutine can observe ctx and exit
				for range agentEvents {
				}
				return
			}
		}
	}()
	return out, nil
}
