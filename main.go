package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/inkpress/config"
	"github.com/cppla/inkpress/controllers"
	"github.com/cppla/inkpress/events"
	"github.com/cppla/inkpress/routes"
	"github.com/cppla/inkpress/services"
	"github.com/cppla/inkpress/storage"
	"github.com/cppla/inkpress/store"
	"github.com/cppla/inkpress/store/gormstore"
	"github.com/cppla/inkpress/store/memstore"
	"github.com/cppla/inkpress/store/mongostore"
	"github.com/cppla/inkpress/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logOpts := utils.LogOptions{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	}
	logger, err := utils.NewLogger(logOpts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	accessOpts := logOpts
	accessOpts.Path = cfg.GinPath
	accessLog, err := utils.NewRollingFileLogger(accessOpts)
	if err != nil {
		logger.Fatal("init access logger", zap.Error(err))
	}

	rc, err := utils.NewRedis(utils.RedisOptions{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		logger.Warn("redis ping failed; limits fail open", zap.Error(err))
	}
	if rc != nil {
		defer rc.Close()
	}

	users, blogs, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	var pub events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.Fatal("connect nats", zap.Error(err))
		}
		pub = nc
	}
	defer pub.Close()

	var (
		images  controllers.ImageStore
		remover services.ImageRemover
	)
	if cfg.MinioEndpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		img, err := storage.New(ctx, storage.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		cancel()
		if err != nil {
			logger.Fatal("init image storage", zap.Error(err))
		}
		images, remover = img, img
	}

	var captcha *utils.Captcha
	if cfg.RegisterCaptchaEnabled {
		captcha = utils.NewCaptcha(rc)
	}

	auth := services.NewAuthService(services.AuthDeps{
		Users:     users,
		Tokens:    utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		Blacklist: utils.NewTokenBlacklist(rc),
		Guard: utils.NewAbuseGuard(rc, utils.AbuseLimits{
			RegisterCooldown:       time.Duration(cfg.RegisterAttemptCooldownSec) * time.Second,
			RegisterMaxPerIPPerDay: cfg.RegisterMaxPerIPPerDay,
			LoginFailedMaxPerHour:  cfg.LoginFailedMaxPerIPPerHour,
			LoginBanDuration:       time.Duration(cfg.LoginTempBanMinutes) * time.Minute,
		}),
		Captcha:      captcha,
		IsAdminEmail: cfg.IsAdminEmail,
		Log:          logger,
	})
	posts := services.NewBlogService(blogs, users, remover, pub, logger)

	r := routes.SetupRouter(routes.Deps{
		Config:    cfg,
		AccessLog: accessLog,
		Auth:      auth,
		Blogs:     posts,
		Social:    services.NewSocialService(users, blogs, pub, logger),
		Admin:     services.NewAdminService(users, blogs, posts, logger),
		Images:    images,
	})

	logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("store", cfg.StoreDriver))
	srv := utils.NewServer(":"+cfg.AppPort, r, logger, 0, 0)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
}

// openStore connects the configured backend and returns a closer for it.
func openStore(cfg config.AppConfig, logger *zap.Logger) (store.UserStore, store.BlogStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := gormstore.Open(cfg.MySQLDSN(), cfg.LogLevel)
		if err != nil {
			return nil, nil, nil, err
		}
		return db.Users(), db.Blogs(), func() {
			if err := db.Close(); err != nil {
				logger.Warn("close mysql", zap.Error(err))
			}
		}, nil
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		db := memstore.New()
		return db.Users(), db.Blogs(), func() {}, nil
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, err
		}
		return db.Users(), db.Blogs(), func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Close(ctx); err != nil {
				logger.Warn("close mongo", zap.Error(err))
			}
		}, nil
	}
}
