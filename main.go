package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "dtt/internal/config"
	"dtt/internal/drive"
	router "dtt/internal/http"
	"dtt/internal/http/handlers"
	"dtt/internal/modal"
	"dtt/internal/repositories"
	"dtt/internal/services"
	"dtt/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	logger, err := utils.NewLogger(env.LogLevel, env.GinMode == gin.DebugMode)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	db, err := intconfig.ConnectDB(env.DBDSN)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer intconfig.CloseDB()

	tickets := repositories.TripTicketRepository{DB: db}
	if err := tickets.EnsureSchema(); err != nil {
		logger.Fatal("trip_tickets schema check failed", zap.Error(err))
	}

	profile := intconfig.DefaultFormProfile()
	if env.FormProfile != "" {
		if profile, err = intconfig.LoadFormProfile(env.FormProfile); err != nil {
			logger.Fatal("form profile unreadable", zap.String("path", env.FormProfile), zap.Error(err))
		}
	}

	driveCfg := drive.ConfigFromEnv(env.Drive)
	tokens := drive.NewTokenStore(driveCfg, logger.Named("drive"))
	uploader := drive.NewUploader(driveCfg, tokens, logger.Named("drive"))
	defer uploader.Close()

	modals := modal.New(
		modal.NewMemorySurface(env.ModalExitDelay),
		modal.WithLogger(logger.Named("modal")),
		modal.WithExitDelay(env.ModalExitDelay),
	)

	hs := &handlers.Handlers{
		Tickets: services.TicketService{
			Repo:     tickets,
			Renderer: services.NewTicketRenderer(profile, logger.Named("pdf")),
			Files:    uploader,
		},
		Modals:    modals,
		Drive:     tokens,
		Users:     repositories.UserRepository{DB: db},
		JWTSecret: []byte(env.JWTSecret),
		Log:       logger,
		PingDB:    intconfig.EnsureDB,
	}
	r := router.NewRouter(env, hs, logger)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", env.AppAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	modals.Dispose()
	hs.Wait()

	logger.Info("server stopped")
}
