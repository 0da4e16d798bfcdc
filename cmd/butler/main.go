package main

import (
	"Butler/internal/ai"
	"Butler/internal/app/runner"
	"Butler/internal/config"
	"Butler/internal/service/clipboard"
	"Butler/internal/service/control"
	"Butler/internal/service/hotkey"
	"Butler/internal/service/journal"
	"Butler/internal/service/keyboard"
	"Butler/internal/service/notify"
	"Butler/internal/settings"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	jr := journal.New(cfg.JournalMax)
	logger, err := journal.NewLogger(cfg.DebugMode, jr)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Debugw("Failed to sync logger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, jr, sugar); err != nil {
		sugar.Errorw("Butler stopped with error", "error", err)
		return
	}
	sugar.Infow("Butler stopped")
}

func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config, jr *journal.Journal, sugar *zap.SugaredLogger) error {
	store, err := settings.Open(cfg.SettingsPath)
	if err != nil {
		return err
	}
	defer store.Close()

	combo, err := hotkey.Parse(cfg.Hotkey)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	var improver ai.Improver = ai.NewPipeline(ai.NewHTTPTransport(httpClient), ai.WhatlangDetector{})
	if cfg.Mock {
		sugar.Warnw("Mock mode: text is returned without calling a backend")
		improver = ai.NewStubImprover()
	}

	keys := hotkey.New(hotkey.Config{Combo: combo})
	r := runner.New(sugar, runner.Options{
		Improver: improver,
		Swapper: &clipboard.Swapper{
			Board:      clipboard.SystemBoard{},
			Keyboard:   keyboard.System{},
			CopyDelay:  cfg.CopyDelay,
			PasteDelay: cfg.PasteDelay,
		},
		Notifier: notify.NewSoundNotifier(sugar, notify.Options{
			Enabled:    cfg.Notify.Enabled,
			PathDone:   cfg.Notify.SoundDone,
			PathFailed: cfg.Notify.SoundError,
			VolumeDB:   cfg.Notify.VolumeDB,
		}),
		Settings: store,
		Hotkeys:  keys.Events(),
		ListModels: func(ctx context.Context, c ai.BackendConfig) ([]string, error) {
			return ai.ListModels(ctx, c, httpClient)
		},
	})

	if cfg.Control.Enabled {
		srv := control.NewServer(cfg.Control, sugar, r, jr, store)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = srv.Stop(context.Background()) }()
	}

	go func() {
		err := keys.Run(ctx)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
		case errors.Is(err, hotkey.ErrUnsupported) && cfg.Control.Enabled:
			sugar.Warnw("Горячая клавиша недоступна, работает только интерфейс управления", "error", err)
		default:
			sugar.Errorw("Hotkey service stopped", "error", err)
			stop()
		}
	}()

	sugar.Infow("Butler started",
		"hotkey", combo,
		"settings", store.Path(),
		"mock", cfg.Mock,
		"control", cfg.Control.Enabled,
	)

	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
