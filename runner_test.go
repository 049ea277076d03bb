package weatherpod

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/boat-builder/weatherpod/model"
	"github.com/boat-builder/weatherpod/model/scripted"
)

var testKey = Key{AppName: "weather_tutorial_app", UserID: "user_1", SessionID: "session_001"}

func newTestRunner(t *testing.T, llm model.LLM, tools ...Tool) (*Runner, SessionService) {
	t.Helper()
	sessions := NewInMemorySessionService()
	_, err := sessions.Create(context.Background(), testKey, nil)
	require.NoError(t, err)
	runner, err := NewRunner(RunnerConfig{
		AppName:        testKey.AppName,
		Agent:          newTestAgent(t, llm, tools...),
		SessionService: sessions,
	})
	require.NoError(t, err)
	runner.SetLogger(zaptest.NewLogger(t).Sugar())
	return runner, sessions
}

func TestNewRunnerRequiresAgent(t *testing.T) {
	runner, err := NewRunner(RunnerConfig{AppName: "app"})
	assert.ErrorIs(t, err, ErrAgentRequired)
	assert.Nil(t, runner)
}

func TestNewRunnerDefaultsSessionService(t *testing.T) {
	runner, err := NewRunner(RunnerConfig{AppName: "app", Agent: newTestAgent(t, scripted.New())})
	require.NoError(t, err)
	assert.IsType(t, &InMemorySessionService{}, runner.SessionService())
}

func TestRunnerUnknownSession(t *testing.T) {
	runner, _ := newTestRunner(t, scripted.New(scripted.Text("hi")))
	_, err := runner.Run(context.Background(), "user_1", "nope", genai.NewContentFromText("hi", genai.RoleUser))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRunnerPersistsEventsInOrder(t *testing.T) {
	llm := scripted.New(scripted.CallTool("echo", map[string]any{"text": "a"}), scripted.Text("done"))
	runner, sessions := newTestRunner(t, llm, mustTool(t, "echo", echo))

	events, err := runner.Run(context.Background(), testKey.UserID, testKey.SessionID, genai.NewContentFromText("hi", genai.RoleUser))
	require.NoError(t, err)
	var streamed []*Event
	for evt := range events {
		streamed = append(streamed, evt)
	}
	require.Len(t, streamed, 3)

	sess, err := sessions.Get(context.Background(), testKey)
	require.NoError(t, err)
	require.Len(t, sess.Events, 4)
	assert.Equal(t, AuthorUser, sess.Events[0].Author)
	for i, evt := range streamed {
		assert.Equal(t, evt.ID, sess.Events[i+1].ID)
		assert.Equal(t, sess.Events[0].InvocationID, evt.InvocationID)
	}
}

func TestRunnerSetsIdentity(t *testing.T) {
	var got model.Identity
	llm := &identityModel{onCall: func(ctx context.Context) { got = model.IdentityFromContext(ctx) }}
	runner, _ := newTestRunner(t, llm)

	_, err := CallAgent(context.Background(), runner, testKey.UserID, testKey.SessionID, "hi")
	require.NoError(t, err)
	assert.Equal(t, model.Identity{AppName: testKey.AppName, UserID: testKey.UserID, SessionID: testKey.SessionID}, got)
}

func TestRunnerStopsWhenConsumerLeaves(t *testing.T) {
	loop := func(*model.Request) (*model.Response, error) {
		return &model.Response{Content: genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromFunctionCall("echo", map[string]any{"text": "x"}),
		}, genai.RoleModel)}, nil
	}
	runner, _ := newTestRunner(t, scripted.New(loop, loop, loop), mustTool(t, "echo", echo))

	ctx, cancel := context.WithCancel(context.Background())
	events, err := runner.Run(ctx, testKey.UserID, testKey.SessionID, genai.NewContentFromText("hi", genai.RoleUser))
	require.NoError(t, err)
	<-events
	cancel()

	done := make(chan struct{})
	go func() {
		for range events {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event stream was not closed after cancel")
	}
}

type identityModel struct {
	onCall func(ctx context.Context)
}

func (m *identityModel) Name() string { return "identity" }

func (m *identityModel) GenerateContent(ctx context.Context, _ *model.Request) (*model.Response, error) {
	m.onCall(ctx)
	return &model.Response{Content: genai.NewContentFromText("ok", genai.RoleModel)}, nil
}
