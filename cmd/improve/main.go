package main

import (
	"Butler/internal/ai"
	"Butler/internal/app/runner"
	"Butler/internal/config"
	"Butler/internal/service/journal"
	"Butler/internal/settings"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// Одноразовое улучшение текста из аргументов или stdin, результат в stdout.
func main() {
	cfg := config.NewConfig()

	logger, err := journal.NewLogger(cfg.DebugMode, nil)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	text := strings.Join(flag.Args(), " ")
	if strings.TrimSpace(text) == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			sugar.Errorw("Failed to read stdin", "error", err)
			os.Exit(1)
		}
		text = string(b)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := settings.Open(cfg.SettingsPath)
	if err != nil {
		sugar.Errorw("Failed to open settings", "path", cfg.SettingsPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var improver ai.Improver = ai.NewPipeline(ai.NewHTTPTransport(&http.Client{Timeout: cfg.HTTPTimeout}), ai.WhatlangDetector{})
	if cfg.Mock {
		improver = ai.NewStubImprover()
	}

	r := runner.New(sugar, runner.Options{Improver: improver, Settings: store})
	out, err := r.ImproveText(ctx, text)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
	fmt.Println(out)
}
