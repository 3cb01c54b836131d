// @title                       Referral API
// @version                     1.0
// @description                 User accounts, session authentication and referral tracking.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Bearer followed by a space and the session token.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/AkshadGawde/linktree-api/internal/api"
	"github.com/AkshadGawde/linktree-api/internal/api/handler"
	"github.com/AkshadGawde/linktree-api/internal/core/ports"
	"github.com/AkshadGawde/linktree-api/internal/core/service"
	mongodb "github.com/AkshadGawde/linktree-api/internal/infrastructure/db/mongo"
	redisdb "github.com/AkshadGawde/linktree-api/internal/infrastructure/db/redis"
	"github.com/AkshadGawde/linktree-api/internal/infrastructure/mail"
	"github.com/AkshadGawde/linktree-api/internal/pkg/config"
	"github.com/AkshadGawde/linktree-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "linktree-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	mongoLog := logger.Component("mongo")
	mongoLog.Info().Str("database", cfg.Mongo.Database).Bool("transactions", cfg.Mongo.Transactions).Msg("connected")

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()
	redisLog := logger.Component("redis")
	redisLog.Info().Str("addr", cfg.Redis.Addr).Msg("connected")

	// --- Capabilities ---
	var mailer ports.Mailer = mail.NewLogMailer(logger.Component("mail"))
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger.Component("mail"))
	}

	var throttle ports.ResetThrottle
	if cfg.Auth.ResetRequestCooldown > 0 {
		throttle = redisdb.NewResetThrottle(rdb, cfg.Auth.ResetRequestCooldown)
	}

	users := mongodb.NewUserRepository(db)
	tokens := service.NewJWTSigner(cfg.JWTSecret, cfg.Auth.SessionTTL)

	// --- Services ---
	accounts := service.NewAccountService(service.AccountDeps{
		Users:     users,
		Referrals: mongodb.NewReferralRepository(db),
		Tx:        mongodb.NewTransactor(mongoClient, cfg.Mongo.Transactions),
		Hasher:    service.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tokens:    tokens,
		Mailer:    mailer,
		Throttle:  throttle,
	}, service.AccountOptions{
		ResetURL:      cfg.Auth.FrontendURL,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
	}, logger.Component("accounts"))
	referrals := service.NewReferralService(mongodb.NewReferralRepository(db), logger.Component("referrals"))

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Accounts:  accounts,
		Referrals: referrals,
		Tokens:    tokens,
		Users:     users,
		Health: map[string]handler.DependencyCheck{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
		Logger:        logger.Component("http"),
		FrontendURL:   cfg.Auth.FrontendURL,
		AuthRateLimit: cfg.Auth.RateLimit,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
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

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
