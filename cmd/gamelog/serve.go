package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamelog/auth"
	"gamelog/config"
	"gamelog/db"
	"gamelog/handlers"
	"gamelog/monitoring"
	"gamelog/redisstore"
	"gamelog/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := utils.InitLogger(cfg.LogLevel, cfg.IsRelease())
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("Database connected and migrated")

	var sessions *redisstore.Store
	if cfg.RedisURL != "" {
		sessions, err = redisstore.Connect(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, login rate limiting and logout revocation disabled")
		} else {
			defer sessions.Close()
			log.Info("Redis connected")
		}
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	router := handlers.NewRouter(handlers.Deps{
		DB:             gdb,
		Auth:           auth.NewService(gdb, tokens, sessions),
		Sessions:       sessions,
		Metrics:        monitoring.NewMetrics(),
		Log:            log,
		LoginLimit:     cfg.LoginRateLimit,
		LoginWindow:    cfg.LoginRateWindow,
		AllowedOrigins: cfg.Origins(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	useTLS := cfg.UseHTTPS && cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""
	if useTLS {
		server.TLSConfig = &tls.Config{
			MinVersion:       tls.VersionTLS12,
			CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP384, tls.CurveP256},
			CipherSuites: []uint16{
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			},
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if useTLS {
			log.WithField("port", cfg.Port).Info("Starting server with HTTPS")
			errCh <- server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		log.WithField("port", cfg.Port).Info("Starting server with HTTP")
		if cfg.IsRelease() {
			log.Warn("Running without HTTPS. Set USE_HTTPS=true for production")
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
