package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/verigraph/verigraph/internal/config"
	temporalmod "github.com/verigraph/verigraph/internal/temporal"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	temporalmod.SetDependencies(&temporalmod.Dependencies{
		Config: cfg,
		Logger: logger,
	})

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	// When a cron schedule is configured, kick off the recurring
	// verification workflow alongside the worker.
	if cfg.Temporal.Schedule != "" {
		_, err := c.ExecuteWorkflow(context.Background(), temporalclient.StartWorkflowOptions{
			ID:           "verigraph-scheduled-verification",
			TaskQueue:    cfg.Temporal.TaskQueue,
			CronSchedule: cfg.Temporal.Schedule,
		}, temporalmod.VerificationWorkflow, temporalmod.VerificationInput{})
		if err != nil {
			log.Fatalf("scheduling verification workflow: %v", err)
		}
		logger.Info("scheduled verification", "cron", cfg.Temporal.Schedule)
	}

	fmt.Printf("Worker started on task queue: %s\n", cfg.Temporal.TaskQueue)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	w.Stop()
	fmt.Println("Worker stopped")
}
