package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/ai"
	"github.com/suPer8Hu/ai-chat/internal/chat"
	"github.com/suPer8Hu/ai-chat/internal/config"
	"github.com/suPer8Hu/ai-chat/internal/db"
	"github.com/suPer8Hu/ai-chat/internal/httpapi"
	"github.com/suPer8Hu/ai-chat/internal/httpapi/middleware"
	"github.com/suPer8Hu/ai-chat/internal/logger"
	"github.com/suPer8Hu/ai-chat/internal/ratelimit"
	"github.com/suPer8Hu/ai-chat/internal/store/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	if err := chat.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	reg, closeProvider, err := newRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeProvider()

	limiter, closeLimiter, err := newLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	svc := chat.NewService(chat.NewRepo(gdb, log), reg, chat.ServiceConfig{
		Provider:          cfg.AIProvider,
		SystemPrompt:      cfg.AISystemPrompt,
		Timeout:           cfg.AITimeout,
		ContextWindowSize: cfg.ChatContextWindowSize,
	}, log)

	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		svc.SetEventPublisher(pub)
		log.Info("publishing chat events", "queue", cfg.RabbitQueue)
	}

	if strings.EqualFold(cfg.LogMode, "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.RouterConfig{
		ChatSvc:        svc,
		Log:            log,
		Limiter:        limiter,
		LimitKey:       middleware.KeyFuncFor(cfg.RateLimitKey),
		LimitWindow:    cfg.RateLimitWindow,
		AllowOrigins:   cfg.CORSAllowOrigins,
		TrustedProxies: cfg.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// a send waits on the provider
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			"addr", srv.Addr,
			"provider", cfg.AIProvider,
			"db", cfg.DBDriver,
			"rate_limit", fmt.Sprintf("%d/%s %s", cfg.RateLimitMax, cfg.RateLimitWindow, cfg.RateLimitKey),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AITimeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRegistry registers the configured provider. The chat's model is passed
// through per request.
func newRegistry(ctx context.Context, cfg config.Config) (*ai.Registry, func(), error) {
	opts := ai.Options{Temperature: cfg.AITemperature, MaxTokens: cfg.AIMaxTokens}
	reg := ai.NewRegistry()
	closeFn := func() {}

	switch strings.ToLower(cfg.AIProvider) {
	case "openai":
		client := ai.NewOpenAIClient(cfg.AIBaseURL, cfg.AIAPIKey)
		reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
			return ai.NewOpenAIProvider(client, model, opts), nil
		})
	case "compatible":
		gateway := ai.CompatibleConfig{
			BaseURL: cfg.AIBaseURL,
			APIKey:  cfg.AIAPIKey,
			SiteURL: cfg.AISiteURL,
			AppName: cfg.AIAppName,
			Options: opts,
		}
		reg.Register("compatible", func(ctx context.Context, model string) (ai.Provider, error) {
			p, err := ai.NewCompatibleProvider(gateway, model)
			if err != nil {
				return nil, err
			}
			return p, nil
		})
	case "gemini":
		client, err := ai.NewGeminiClient(ctx, cfg.AIAPIKey)
		if err != nil {
			return nil, nil, err
		}
		closeFn = func() { _ = client.Close() }
		reg.Register("gemini", func(ctx context.Context, model string) (ai.Provider, error) {
			return ai.NewGeminiProvider(client, model, opts), nil
		})
	default:
		return nil, nil, fmt.Errorf("unsupported AI_PROVIDER=%q", cfg.AIProvider)
	}
	return reg, closeFn, nil
}

func newLimiter(ctx context.Context, cfg config.Config, log *logger.Logger) (ratelimit.Limiter, func(), error) {
	if cfg.RateLimitBackend != "redis" {
		return ratelimit.NewMemory(cfg.RateLimitMax, cfg.RateLimitWindow), func() {}, nil
	}
	rdb, err := ratelimit.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return ratelimit.NewRedis(rdb, cfg.RateLimitMax, cfg.RateLimitWindow, log), func() { _ = rdb.Close() }, nil
}
