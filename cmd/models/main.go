package main

import (
	"Butler/internal/ai"
	"Butler/internal/app/runner"
	"Butler/internal/config"
	"Butler/internal/service/journal"
	"Butler/internal/settings"
	"context"
	"fmt"
	"net/http"
	"os"
)

// Печатает каталог моделей настроенного бэкенда, по одной на строку.
func main() {
	cfg := config.NewConfig()

	logger, err := journal.NewLogger(cfg.DebugMode, nil)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	store, err := settings.Open(cfg.SettingsPath)
	if err != nil {
		sugar.Errorw("Failed to open settings", "path", cfg.SettingsPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	r := runner.New(sugar, runner.Options{
		Settings: store,
		ListModels: func(ctx context.Context, c ai.BackendConfig) ([]string, error) {
			return ai.ListModels(ctx, c, httpClient)
		},
	})

	models, err := r.Models(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, m := range models {
		fmt.Println(m)
	}
}
