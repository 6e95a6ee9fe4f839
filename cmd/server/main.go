// Command server runs the medtranslate backend: the websocket relay, the
// REST API around it, and the translation pipeline behind both.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/captain-yun7/medtranslate-v1/internal/auth"
	"github.com/captain-yun7/medtranslate-v1/internal/cache"
	"github.com/captain-yun7/medtranslate-v1/internal/config"
	"github.com/captain-yun7/medtranslate-v1/internal/domain"
	"github.com/captain-yun7/medtranslate-v1/internal/glossary"
	httpapi "github.com/captain-yun7/medtranslate-v1/internal/http"
	"github.com/captain-yun7/medtranslate-v1/internal/observability"
	"github.com/captain-yun7/medtranslate-v1/internal/provider"
	"github.com/captain-yun7/medtranslate-v1/internal/relay"
	"github.com/captain-yun7/medtranslate-v1/internal/repo"
	"github.com/captain-yun7/medtranslate-v1/internal/session"
	"github.com/captain-yun7/medtranslate-v1/internal/sysutil"
	"github.com/captain-yun7/medtranslate-v1/internal/translate"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// relayStore adapts the repo layer to the relay's persistence capabilities.
type relayStore struct {
	db *gorm.DB
}

func (s relayStore) Append(ctx context.Context, msg *domain.Message) error {
	return repo.CreateMessage(ctx, s.db, msg)
}

func (s relayStore) AssignAgent(ctx context.Context, roomID, agentID string) error {
	return repo.AssignAgent(ctx, s.db, roomID, agentID)
}

func (s relayStore) EndRoom(ctx context.Context, roomID string) error {
	return repo.EndRoom(ctx, s.db, roomID)
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	store := cache.NewRedis(cfg.Cache.RedisURL)
	if err := store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, translation cache disabled")
	} else {
		log.Info().Msg("redis connected")
	}

	table := glossary.DefaultMedical()
	prov := provider.Select(provider.Settings{
		Kind:           cfg.Translation.Provider,
		OpenAIKey:      cfg.Translation.OpenAIKey,
		OpenAIModel:    cfg.Translation.OpenAIModel,
		Temperature:    cfg.Translation.Temperature,
		AnthropicKey:   cfg.Translation.AnthropicKey,
		AnthropicModel: cfg.Translation.AnthropicModel,
	}, table)

	svc := translate.New(prov, table, store)
	svc.TTL = cfg.Cache.TTL
	svc.MaxAttempts = cfg.Translation.MaxAttempts
	svc.BaseDelay = cfg.Translation.BaseDelay
	svc.MaxDelay = cfg.Translation.MaxDelay
	log.Info().
		Str("provider", svc.Info().Provider).
		Bool("downgraded", svc.Downgraded()).
		Msg("translation pipeline ready")

	reg := session.NewRegistry()
	rstore := relayStore{db: db}
	rel := relay.New(reg, svc, rstore)
	rel.Rooms = rstore
	rel.PivotLang = cfg.Translation.PivotLang

	var issuer *auth.Issuer
	if cfg.JWTSecret != "" {
		issuer = auth.NewIssuer(cfg.JWTSecret)
	} else {
		log.Warn().Msg("JWT_SECRET unset, agent login and monitoring auth disabled")
	}

	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{
		DB:         db,
		Translator: svc,
		Cache:      store,
		Registry:   reg,
		Relay:      rel,
		Issuer:     issuer,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown failed")
	}
}
