package main

import (
	"context"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/labstack/gommon/color"

	"github.com/locuta-ai/locuta/internal/pkg/ai"
	"github.com/locuta-ai/locuta/internal/pkg/auth"
	"github.com/locuta-ai/locuta/internal/pkg/coach"
	"github.com/locuta-ai/locuta/internal/pkg/events"
	"github.com/locuta-ai/locuta/internal/pkg/intro"
	"github.com/locuta-ai/locuta/internal/pkg/postgres"
	"github.com/locuta-ai/locuta/internal/pkg/utils"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	data := &coach.Data{}
	data.Port = cfg.GetInt("port")
	var err error

	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	dbConfig.ConnConfig.Tracer = &tracelog.TraceLog{Logger: utils.NewPgxLoggerAdapter(),
		LogLevel: tracelog.LogLevelDebug}

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	if err := waitForDB(ctx, db); err != nil {
		goapp.Log.Fatal().Err(err).Msg("db not reachable")
	}
	data.DB = db

	aiClient, err := ai.NewClient(cfg.GetString("openai.key"),
		ai.WithChatModel(cfg.GetString("openai.chatModel")),
		ai.WithSTTModel(cfg.GetString("openai.sttModel")),
		ai.WithTTSModel(cfg.GetString("openai.ttsModel")))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init openai client")
	}
	data.Transcriber = aiClient
	data.Chat = aiClient
	data.Synth = aiClient

	data.Intro, err = intro.NewGenerator(aiClient, aiClient)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init intro generator")
	}

	data.Auth, err = auth.NewVerifier(cfg.GetString("auth.secret"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init auth verifier")
	}

	sink := events.NewLogSink(cfg.GetInt("events.buffer"))
	defer sink.Close()
	data.Events = sink

	go utils.RunPerfEndpoint()

	err = coach.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
}

// waitForDB blocks until the db answers or the retry budget runs out.
// Request handlers never retry - only startup does
func waitForDB(ctx context.Context, db *postgres.DB) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(), 8), ctx)
	return backoff.RetryNotify(func() error {
		ctxT, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.Live(ctxT)
	}, policy, func(err error, d time.Duration) {
		goapp.Log.Warn().Err(err).Msgf("db not ready, retry in %s", d)
	})
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
    __                     __
   / /   ____  _______  __/ /_____ _
  / /   / __ \/ ___/ / / / __/ __ ` + "`" + `/
 / /___/ /_/ / /__/ /_/ / /_/ /_/ /
/_____/\____/\___/\__,_/\__/\__,_/

                          __
  _________  ____ ______/ /_
 / ___/ __ \/ __ ` + "`" + `/ ___/ __ \
/ /__/ /_/ / /_/ / /__/ / / /
\___/\____/\__,_/\___/_/ /_/   v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/locuta-ai/locuta"))
}
