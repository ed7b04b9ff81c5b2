package main // Entry point package

import (
	"context"   // shutdown deadline and background consumer lifetime
	"errors"    // errors matches http.ErrServerClosed
	"net/http"  // server error sentinel
	"os"        // process exit and signals
	"os/signal" // graceful shutdown on SIGINT/SIGTERM
	"syscall"   // SIGTERM
	"time"      // shutdown timeout

	"github.com/labstack/echo/v4"                     // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"   // Echo's stock middleware
	"go.uber.org/zap"                                 // structured logging

	"github.com/iliyamo/contacts-api/internal/cache"      // login session cache
	"github.com/iliyamo/contacts-api/internal/config"     // Internal config loader
	"github.com/iliyamo/contacts-api/internal/database"   // MySQL connection
	"github.com/iliyamo/contacts-api/internal/handler"    // HTTP handlers
	"github.com/iliyamo/contacts-api/internal/logger"     // zap construction
	"github.com/iliyamo/contacts-api/internal/mail"       // SMTP sender
	"github.com/iliyamo/contacts-api/internal/middleware" // rate limiting
	"github.com/iliyamo/contacts-api/internal/queue"      // RabbitMQ mail transport
	"github.com/iliyamo/contacts-api/internal/repository" // data access
	"github.com/iliyamo/contacts-api/internal/router"     // Internal router setup
	"github.com/iliyamo/contacts-api/internal/service"    // auth flows
	"github.com/iliyamo/contacts-api/internal/storage"    // avatar storage
	"github.com/iliyamo/contacts-api/internal/tasks"      // background tasks
	"github.com/iliyamo/contacts-api/internal/utils"      // tokens
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		logger.Must("").Fatal("load config", zap.Error(err))
	}
	log := logger.Must(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	redisCfg := config.LoadRedisConfig()
	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil {
		log.Warn("redis unavailable, session cache disabled and rate limiting is per instance", zap.String("addr", redisCfg.Addr))
	} else {
		defer rdb.Close()
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	smtpSender := mail.NewSMTPSender(cfg.Mail, cfg.BaseURL)
	var mailer service.Mailer = smtpSender
	consumerDone := make(chan struct{})
	if cfg.Mail.Transport == "amqp" {
		mailer = queue.NewPublisher(cfg.Mail.AMQPURL, cfg.Mail.Queue, log)
		go func() {
			defer close(consumerDone)
			_ = queue.StartMailConsumer(rootCtx, cfg.Mail.AMQPURL, cfg.Mail.Queue, smtpSender, log)
		}()
	} else {
		close(consumerDone)
	}

	var avatars service.AvatarStore
	if s3, err := storage.NewS3Avatars(rootCtx, cfg.Storage); err != nil {
		log.Warn("avatar storage disabled", zap.Error(err))
	} else {
		avatars = s3
	}

	runner := tasks.NewRunner(log, cfg.TaskTimeout)
	tokens := utils.NewTokenService(cfg.JWTSecret, utils.TokenTTLs{
		Access:  cfg.AccessTTL,
		Refresh: cfg.RefreshTTL,
		Email:   cfg.EmailTokenTTL,
		Reset:   cfg.ResetTokenTTL,
	}, nil)

	auth := service.NewAuthService(service.AuthDeps{
		Users:      repository.NewUserRepo(db),
		Tokens:     tokens,
		Sessions:   cache.NewSessionCache(rdb, cfg.SessionPrefix),
		Mailer:     mailer,
		Tasks:      runner,
		Avatars:    avatars,
		AvatarKey:  storage.AvatarKey,
		Log:        log,
		BcryptCost: cfg.BcryptCost,
		SessionTTL: cfg.SessionCacheTTL,
	})

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(requestLogger(log))

	router.Register(e, router.Deps{ // Register application routes
		Auth:      handler.NewAuthHandler(auth, log),
		Contacts:  handler.NewContactHandler(repository.NewContactRepo(db, nil), log),
		Users:     auth,
		Health:    handler.Health(db),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("mail", cfg.Mail.Transport))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	runner.Wait() // let queued emails go out
	<-consumerDone
}

// requestLogger feeds echo's request logger into zap.
func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("ip", v.RemoteIP),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
