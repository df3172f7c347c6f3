package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mailsage/mailsage-backend/internal/app"
	"github.com/mailsage/mailsage-backend/internal/observability"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "mailsage",
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(ctx)
	}()

	observability.Init(log)

	a, err := app.New()
	if err != nil {
		log.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	addr := ":" + a.Cfg.Port
	log.Info("Server listening", "address", addr)
	if err := a.Run(addr); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
