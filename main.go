package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/clinical-cases-api/categorizer"
	"github.com/giygas/clinical-cases-api/config"
	"github.com/giygas/clinical-cases-api/data"
	"github.com/giygas/clinical-cases-api/enhancement"
	"github.com/giygas/clinical-cases-api/handlers"
	"github.com/giygas/clinical-cases-api/health"
	"github.com/giygas/clinical-cases-api/knowledgeparser"
	"github.com/giygas/clinical-cases-api/logging"
	"github.com/giygas/clinical-cases-api/scheduler"
	"github.com/giygas/clinical-cases-api/screening"
	"github.com/giygas/clinical-cases-api/server"
	"github.com/giygas/clinical-cases-api/session"
	"github.com/giygas/clinical-cases-api/validation"
	"github.com/joho/godotenv"
)

func main() {
	verbose := flag.Bool("verbose", false, "log info messages to the console")
	flag.Parse()

	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithOptions(logging.Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		Verbose:        *verbose,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer func() {
		if err := logging.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close log file: %v\n", err)
		}
	}()

	startTime := time.Now()
	container := data.NewKnowledgeContainer()
	container.SetServerStartTime(startTime)
	validator := validation.NewDataValidator()

	sched := scheduler.NewScheduler(container, knowledgeparser.NewParser(cfg.KnowledgeFile), validator,
		time.Duration(cfg.KnowledgeReloadMinutes)*time.Minute)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to load knowledge tables", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	cat := categorizer.New(container)
	sessions := session.NewStore(container, cat, time.Duration(cfg.SessionTTLMinutes)*time.Minute)

	handler := handlers.NewHTTPHandler(handlers.Dependencies{
		Store:           container,
		Resolver:        enhancement.NewResolver(container, screening.NewRandomSource(cfg.ScreeningSeed)),
		Categorizer:     cat,
		Sessions:        sessions,
		Validator:       validator,
		Health:          health.NewHealthChecker(container, sessions, startTime),
		FollowUpDefault: cfg.FollowUpEnabled,
		StartTime:       startTime,
	})

	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-quit:
	case err := <-serverErr:
		logging.Error("Server failed to start", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
}
