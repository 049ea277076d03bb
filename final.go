package weatherpod

import (
	"context"

	"google.golang.org/genai"
)

// DefaultFinalResponse is reported when a turn ends without a final event.
const DefaultFinalResponse = "Agent did not produce a final response."

const noEscalationMessage = "No specific message."

// TakeUntil reads from ch until pred accepts a value, ch is closed or ctx is
// done. The boolean reports whether a value was accepted.
func TakeUntil[T any](ctx context.Context, ch <-chan T, pred func(T) bool) (T, bool) {
	var zero T
	for {
		select {
		case <-ctx.Done():
			return zero, false
		case v, ok := <-ch:
			if !ok {
				return zero, false
			}
			if pred(v) {
				return v, true
			}
		}
	}
}

// FinalResponse consumes events up to the first final event and returns the
// text to show the user.
func FinalResponse(ctx context.Context, events <-chan *Event) string {
	evt, ok := TakeUntil(ctx, events, (*Event).IsFinalResponse)
	if !ok {
		return DefaultFinalResponse
	}
	if text, ok := evt.Text(); ok {
		return text
	}
	if evt.Actions.Escalate {
		msg := evt.ErrorMessage
		if msg == "" {
			msg = noEscalationMessage
		}
		return "Agent escalated: " + msg
	}
	return DefaultFinalResponse
}

// CallAgent sends query as the user's message and returns the final response
// text. The turn is canceled once the final event has been read.
func CallAgent(ctx context.Context, runner *Runner, userID, sessionID, query string) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := runner.Run(ctx, userID, sessionID, genai.NewContentFromText(query, genai.RoleUser))
	if err != nil {
		return "", err
	}
	return FinalResponse(ctx, events), nil
}
