package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"YourWheels/cache"
	"YourWheels/config"
	"YourWheels/handlers"
	"YourWheels/kv"
	"YourWheels/mailer"
	"YourWheels/media"
	"YourWheels/middleware"
	"YourWheels/oauth"
	"YourWheels/routes"
	"YourWheels/services"
	"YourWheels/store"
	"YourWheels/store/memstore"
	"YourWheels/store/mongostore"
	"YourWheels/utils"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "yourwheels",
		Short:   "YourWheels vehicle marketplace API",
		Version: Version,
	}
	serve := serveCmd()
	rootCmd.AddCommand(serve)
	rootCmd.RunE = serve.RunE
	rootCmd.Flags().AddFlagSet(serve.Flags())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Port = port
			}
			if memory, _ := cmd.Flags().GetBool("memory"); memory {
				cfg.StoreBackend = "memory"
			}
			dev, _ := cmd.Flags().GetBool("dev")

			log, err := newLogger(dev)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, log)
		},
	}

	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	cmd.Flags().Bool("memory", false, "use in-process storage instead of MongoDB")
	cmd.Flags().Bool("dev", false, "human readable debug logging")
	return cmd
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type backends struct {
	store  store.Store
	media  media.Store
	checks map[string]handlers.Check
	close  []func(context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backends, error) {
	b := &backends{checks: map[string]handlers.Check{}}
	if cfg.StoreBackend == "memory" {
		log.Warn("using in-memory storage; data is lost on exit")
		b.store = memstore.New()
		b.media = media.NewMemoryStore()
		return b, nil
	}

	client, err := mongostore.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	b.store = mongostore.New(db)
	b.media = media.NewGridFSStore(db)
	b.checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	b.close = append(b.close, client.Disconnect)
	return b, nil
}

// openKV returns the Redis store when caching is enabled and Redis answers.
// Without it the cache is disabled and OTP codes stay in process.
func openKV(ctx context.Context, cfg *config.Config, log *zap.Logger, b *backends) kv.Store {
	if !cfg.CacheEnabled && cfg.OTPBackend != "redis" {
		return nil
	}
	rs := kv.NewRedisStore(kv.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, continuing without it", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rs.Close()
		return nil
	}
	log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	b.checks["redis"] = rs.Ping
	b.close = append(b.close, func(context.Context) error { return rs.Close() })
	return rs
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	b, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, closeFn := range b.close {
			if err := closeFn(context.Background()); err != nil {
				log.Warn("close backend", zap.Error(err))
			}
		}
	}()

	redisStore := openKV(ctx, cfg, log, b)

	var cacheStore kv.Store
	if cfg.CacheEnabled && redisStore != nil {
		cacheStore = redisStore
	}
	var otpStore kv.Store = kv.NewMemoryStore()
	if cfg.OTPBackend == "redis" && redisStore != nil {
		otpStore = redisStore
	}

	var otpMailer services.OTPMailer = mailer.LogMailer{Log: log.Named("mailer")}
	if cfg.SMTP.Host != "" {
		otpMailer = mailer.NewSMTPMailer(mailer.SMTPConfig(cfg.SMTP))
	}

	tokens, err := utils.NewTokenAuthority(cfg.JWTSecret)
	if err != nil {
		return err
	}
	accounts := services.NewAccountService(b.store, tokens, cfg.Admins, log)
	otp := services.NewOTPService(otpStore, otpMailer, log)
	listings := services.NewListingService(b.store, log)
	ledger := services.NewLedgerService(b.store, services.RandomGateway{SuccessRate: cfg.PaymentSuccess}, log)
	providers := oauth.NewProviders(
		oauth.Credentials(cfg.GoogleBuyer),
		oauth.Credentials(cfg.GoogleSeller),
		cfg.GoogleCallback,
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.NewValidator()
	e.HTTPErrorHandler = (&middleware.ErrorHandler{
		Log:         log,
		Redirect:    cfg.ErrorRedirect,
		FrontendURL: cfg.FrontendURL,
	}).Handle
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log.Named("http")))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowCredentials: true,
	}))

	routes.RegisterRoutes(e, routes.Deps{
		Tokens:       tokens,
		Cache:        cache.New(cacheStore, cfg.CacheTimeout, log),
		Auth:         handlers.NewAuthController(accounts, otp, providers, cfg.FrontendURL, log),
		Accounts:     handlers.NewAccountController(accounts, ledger),
		Vehicles:     handlers.NewVehicleController(listings),
		Transactions: handlers.NewTransactionController(ledger),
		Media:        handlers.NewMediaController(b.media, cfg.PublicBaseURL, log),
		Health:       handlers.NewHealthController(b.checks),
		OTPRate:      cfg.OTPRateLimit,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend), zap.Bool("cache", cacheStore != nil))
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
