package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/boat-builder/weatherpod"
	"github.com/boat-builder/weatherpod/config"
	"github.com/boat-builder/weatherpod/log"
	"github.com/boat-builder/weatherpod/model"
	"github.com/boat-builder/weatherpod/model/provider"
	"github.com/boat-builder/weatherpod/model/scripted"
	"github.com/boat-builder/weatherpod/weather"
)

const defaultQuery = "What is the weather like in London?"

// Session store names accepted by WEATHER_SESSION_STORE.
const (
	storeMemory   = "memory"
	storeSQLite   = "sqlite"
	storePostgres = "postgres"
)

func main() {
	cfg, loaded := config.Load()
	log.SetLevel(cfg.LogLevel)
	if !loaded {
		log.Default.Debugw("No .env file loaded, falling back to environment variables")
	}

	if err := run(context.Background(), cfg, defaultQuery, os.Stdout, log.Default); err != nil {
		log.Default.Errorw("Weather agent failed", "error", err)
		os.Exit(1)
	}
}

// run answers query once and prints the exchange to stdout.
func run(ctx context.Context, cfg *config.Config, query string, stdout io.Writer, logger log.Logger) error {
	fmt.Fprintf(stdout, "\n>>> User Query: %s\n", query)

	llm, err := newModel(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error initializing the weather agent: %w", err)
	}
	agent, err := weather.NewAgent(llm, stdout)
	if err != nil {
		return fmt.Errorf("error initializing the weather agent: %w", err)
	}
	agent.SetLogger(logger)

	sessions, err := newSessionService(cfg)
	if err != nil {
		return err
	}
	defer sessions.Close()

	key := weatherpod.Key{AppName: cfg.AppName, UserID: cfg.UserID, SessionID: cfg.SessionID}
	if _, err := sessions.Create(ctx, key, nil); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	fmt.Fprintf(stdout, "Session created: App='%s', User='%s', Session='%s'\n", key.AppName, key.UserID, key.SessionID)

	runner, err := weatherpod.NewRunner(weatherpod.RunnerConfig{
		AppName:        cfg.AppName,
		Agent:          agent,
		SessionService: sessions,
	})
	if err != nil {
		return err
	}
	runner.SetLogger(logger)
	fmt.Fprintf(stdout, "Runner created for agent '%s'.\n", runner.Agent().Name())

	response, err := weatherpod.CallAgent(ctx, runner, key.UserID, key.SessionID, query)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, response)

	if sess, err := sessions.Get(ctx, key); err == nil {
		if cost, ok := sess.Cost(llm.Name()); ok {
			logger.Infow("Session cost", "inputTokens", cost.InputTokens, "outputTokens", cost.OutputTokens, "totalCost", cost.TotalCost)
		}
	}
	return nil
}

func newModel(ctx context.Context, cfg *config.Config) (model.LLM, error) {
	if cfg.Model == scripted.Name {
		return weather.OfflineModel(), nil
	}
	return provider.New(ctx, cfg.Model, provider.Credentials{
		GoogleAPIKey:    cfg.GoogleAPIKey,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
	})
}

func newSessionService(cfg *config.Config) (weatherpod.SessionService, error) {
	switch cfg.SessionStore {
	case storeMemory, "":
		return weatherpod.NewInMemorySessionService(), nil
	case storeSQLite:
		return weatherpod.NewSQLiteSessionService(cfg.SQLitePath)
	case storePostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("WEATHER_POSTGRES_DSN is required for the %s session store", storePostgres)
		}
		return weatherpod.NewPostgresSessionService(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
