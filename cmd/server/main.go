package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"orderdesk/internal/api"
	"orderdesk/internal/cache"
	"orderdesk/internal/clock"
	"orderdesk/internal/closing"
	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/events"
	"orderdesk/internal/metrics"
	"orderdesk/internal/notify"
	"orderdesk/internal/service"
)

func main() {
	_ = godotenv.Load()

	path := os.Getenv("ORDERDESK_CONFIG_PATH")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		fallback := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Str("path", path).Msg("failed to load config")
	}
	logger := newLogger(cfg)

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.Cache.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}
	restaurantCache := cache.NewRestaurants(db, rdb, cfg.CacheTTL(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus()
	restaurantCache.Subscribe(bus)
	if cfg.Telegram.Enabled {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Fatal().Err(err).Msg("create telegram bot error")
		}
		bot.Debug = cfg.Telegram.Debug
		notifier := notify.NewNotifier(bot, cfg.Telegram.ChatID, cfg.Location(), logger)
		notifier.Subscribe(bus)
		go notifier.Run(ctx)
		logger.Info().Str("bot", bot.Self.UserName).Int64("chat_id", cfg.Telegram.ChatID).Msg("telegram notifications enabled")
	}

	holidays := new(closing.Shared)
	watcher := config.NewHolidaysWatcher(cfg.Holidays.Path, cfg.HolidaysReloadInterval(), logger, func(h *config.HolidaysConfig) {
		holidays.Store(h.Calendar())
	})
	if err := watcher.Start(ctx); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Holidays.Path).Msg("holidays file not loaded, continuing without platform closures")
	}

	clk := clock.System{Location: cfg.Location()}
	db.SetClock(clk)
	router := api.NewRouter(api.Deps{
		Restaurants:       service.NewRestaurantService(db, restaurantCache, bus, clk, holidays, &logger),
		Products:          service.NewProductService(restaurantCache, db, &logger),
		Orders:            service.NewOrderService(db, restaurantCache, db, bus, clk, holidays, &logger),
		Tokens:            api.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Logger:            logger,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, restaurantCache, &logger)
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}
	go database.NewBackupService(db, cfg.Backup, &logger).Start(ctx)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error().Err(err).Msg("api server shutdown")
		}
	}()

	logger.Info().Str("address", cfg.Server.Address).Str("timezone", cfg.Ordering.Timezone).Msg("orderdesk started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("api server error")
	}
	logger.Info().Msg("orderdesk stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if cfg.Logging.Format == "json" {
		out = os.Stdout
	}
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

type pinger interface {
	Ping(ctx context.Context) error
}

func startHealthServer(ctx context.Context, port int, db pinger, rdb pinger, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.Ping(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(ctxPing); err != nil {
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
