package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/local/attendplanner/internal/ai"
	"github.com/local/attendplanner/internal/analyzer"
	cfgpkg "github.com/local/attendplanner/internal/config"
	logpkg "github.com/local/attendplanner/internal/logger"
	mpkg "github.com/local/attendplanner/internal/metrics"
	"github.com/local/attendplanner/internal/ocr"
	"github.com/local/attendplanner/internal/ocr/tesseract"
	"github.com/local/attendplanner/internal/planner"
	"github.com/local/attendplanner/internal/schedule"
	"github.com/local/attendplanner/internal/storage"
	"github.com/local/attendplanner/internal/store"
	"github.com/local/attendplanner/internal/structuring"
)

func main() {
	// .env is optional; real environment wins
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()
	mpkg.Init()

	ctx := context.Background()

	rdb, err := store.NewClient(ctx, cfg.Store.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	schedules, closeSchedules := openSchedules(ctx, cfg.Mongo)
	defer closeSchedules()

	var providers []structuring.Provider
	for _, engine := range cfg.Providers.Engines() {
		client := newAIClient(engine)
		if client == nil {
			log.Warn().Str("engine", engine).Msg("unknown structuring engine ignored")
			continue
		}
		providers = append(providers, structuring.Provider{Client: client, Model: cfg.Providers.Model(engine)})
	}
	router := structuring.NewRouter(providers,
		structuring.WithTimeout(cfg.Structuring.Timeout),
		structuring.WithInflightLimit(cfg.Structuring.MaxInflight),
		structuring.WithBreaker(structuring.NewRedisBreaker(rdb, cfg.Structuring.BreakerBaseBackoff, cfg.Structuring.BreakerMaxBackoff)),
	)

	languages := strings.Split(cfg.OCR.Language, "+")
	engine := ocr.NewHandle(func() (ocr.Recognizer, error) {
		r, err := tesseract.New(languages...)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	defer engine.Close()

	deps := analyzer.Dependencies{
		Recognizer: engine,
		Structurer: router,
		Calculator: planner.NewCalculator(schedules),
		Schedules:  schedules,
		Records:    store.NewRecordStore(rdb, cfg.Store.RecordTTL),
		Cache:      store.NewTextCache(rdb, cfg.Store.TextCacheTTL),
	}
	if cfg.Archive.Enabled() {
		archive, err := storage.NewArchive(ctx, storage.Options{
			Bucket:          cfg.Archive.Bucket,
			Region:          cfg.Archive.Region,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		})
		if err != nil {
			log.Error().Err(err).Msg("screenshot archive disabled")
		} else {
			deps.Archive = archive
		}
	}

	opts := analyzer.DefaultOptions()
	opts.UseVariants = cfg.OCR.Variants
	opts.PDFDPI = cfg.OCR.PDFDPI
	opts.PDFMaxPages = cfg.OCR.PDFMaxPages
	opts.MaxUpload = int64(cfg.OCR.MaxUploadMB) << 20
	opts.DefaultStudentID = cfg.Defaults.StudentID
	opts.DefaultDesired = cfg.Defaults.DesiredAttendance
	opts.DefaultWeeks = cfg.Defaults.Weeks
	svc := analyzer.New(deps, opts)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	mux.Handle("GET /metrics", mpkg.Handler())

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("port", cfg.Server.Port).Int("providers", len(providers)).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("shutdown complete")
}

func newAIClient(engine string) ai.Client {
	switch engine {
	case "gemini":
		return ai.NewGeminiClient()
	case "openai":
		return ai.NewOpenAIClient()
	case "anthropic":
		return ai.NewAnthropicClient()
	}
	return nil
}

// openSchedules uses MongoDB when configured and the built-in schedules otherwise.
func openSchedules(ctx context.Context, cfg cfgpkg.MongoConfig) (schedule.Source, func()) {
	if cfg.URI == "" {
		log.Warn().Msg("MONGODB_URI not set, serving built-in schedules")
		return schedule.NewMemorySource(schedule.DefaultSchedules()...), func() {}
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	if err := client.Ping(cctx, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mongodb")
	}
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}

	src := schedule.NewMongoSource(client.Database(cfg.Database))
	if err := src.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("schedule index not created")
	}
	if cfg.SeedSchedules {
		if err := schedule.SeedDefaults(ctx, src); err != nil {
			log.Fatal().Err(err).Msg("failed to seed schedules")
		}
	}
	log.Info().Str("database", cfg.Database).Msg("schedules served from mongodb")
	return src, closeFn
}
