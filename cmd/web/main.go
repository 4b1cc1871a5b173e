package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/broker"
	"github.com/myrjola/whodunit/internal/casegen"
	"github.com/myrjola/whodunit/internal/db"
	"github.com/myrjola/whodunit/internal/envstruct"
	"github.com/myrjola/whodunit/internal/investigation"
	"github.com/myrjola/whodunit/internal/logging"
	"github.com/myrjola/whodunit/internal/operations"
	"github.com/myrjola/whodunit/internal/pprofserver"
	"github.com/myrjola/whodunit/internal/repositories"
	"github.com/myrjola/whodunit/internal/storage"
)

type config struct {
	Addr         string `env:"WHODUNIT_ADDR" envDefault:"localhost:4000"`
	SQLiteURL    string `env:"WHODUNIT_SQLITE_URL" envDefault:"./whodunit.sqlite"`
	PprofAddr    string `env:"WHODUNIT_PPROF_ADDR" envDefault:""`
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	MediaDir     string `env:"WHODUNIT_MEDIA_DIR" envDefault:"./media"`
	MediaBaseURL string `env:"WHODUNIT_MEDIA_BASE_URL" envDefault:"/media"`
}

type application struct {
	logger         *slog.Logger
	cases          *repositories.CaseRepository
	investigations *investigation.Service
	orchestrator   *casegen.Orchestrator
	tracker        *operations.Tracker
	answers        *broker.ChannelBroker[string, string]
	speech         ai.SpeechGenerator
	media          storage.Store
	mediaDir       string
}

func main() {
	loggerHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	logger := slog.New(logging.NewContextHandler(loggerHandler))

	// Missing .env is fine in production where the environment is set directly.
	_ = godotenv.Load()

	if err := run(context.Background(), logger, os.LookupEnv); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return err
	}

	// Initialise pprof listening on localhost so that it's not open to the world
	if cfg.PprofAddr != "" {
		pprofserver.Launch(cfg.PprofAddr, logger)
	}

	dbs, err := db.NewDatabase(cfg.SQLiteURL)
	if err != nil {
		return err
	}

	logger.Info("connected to db")
	go dbs.StartOptimizer(ctx, logger)

	aiClient := ai.NewClient(cfg.OpenAIAPIKey)
	media := storage.NewFilesystem(cfg.MediaDir, cfg.MediaBaseURL, logger)

	orchestrator, err := casegen.NewOrchestrator(aiClient, aiClient, media, logger)
	if err != nil {
		return err
	}

	caseRepository := repositories.NewCaseRepository(dbs, logger)
	limiter := investigation.NewDailyLimiter()
	tracker := operations.NewTracker(operations.NewMemoryStore(), logger)
	answers := broker.NewChannelBroker[string, string]()

	app := application{
		logger:         logger,
		cases:          caseRepository,
		investigations: investigation.NewService(caseRepository, limiter, aiClient, logger),
		orchestrator:   orchestrator,
		tracker:        tracker,
		answers:        answers,
		speech:         aiClient,
		media:          media,
		mediaDir:       cfg.MediaDir,
	}

	go answers.Start()
	defer answers.Stop()
	tracker.StartSweep(ctx, 10*time.Minute)

	return app.configureAndStartServer(ctx, cfg.Addr)
}
