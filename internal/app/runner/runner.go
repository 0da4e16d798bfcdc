package runner

import (
	"Butler/internal/ai"
	"Butler/internal/metrics"
	"Butler/internal/service/clipboard"
	"Butler/internal/service/hotkey"
	"Butler/internal/settings"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	// ErrBusy предыдущее улучшение ещё выполняется; новое отклонено, а не поставлено в очередь.
	ErrBusy = errors.New("an improvement is already in progress")
	// ErrEmptyText нечего улучшать.
	ErrEmptyText = errors.New("text is empty")
)

// Swapper захват выделения и его замена через буфер обмена.
type Swapper interface {
	Capture(ctx context.Context) (string, error)
	Replace(ctx context.Context, text string) error
	Restore(ctx context.Context) error
}

// Notifier звуковая обратная связь.
type Notifier interface {
	PlayDone(ctx context.Context) error
	PlayFailed(ctx context.Context) error
}

// SettingsSource снимки пользовательских настроек и поток их изменений.
type SettingsSource interface {
	Snapshot() settings.Settings
	Subscribe() <-chan settings.Settings
}

// ModelLister каталог моделей настроенного бэкенда.
type ModelLister func(ctx context.Context, cfg ai.BackendConfig) ([]string, error)

// Options зависимости Runner. Swapper, Notifier и Hotkeys могут отсутствовать
// (например, в CLI или тестах).
type Options struct {
	Improver   ai.Improver
	Swapper    Swapper
	Notifier   Notifier
	Settings   SettingsSource
	Hotkeys    <-chan hotkey.Event
	ListModels ModelLister
}

// Runner оболочка приложения: одна попытка улучшения за раз,
// конфигурация бэкенда пересобирается целиком при каждом изменении настроек.
type Runner struct {
	opts   Options
	logger *zap.SugaredLogger

	processing atomic.Bool

	mu         sync.RWMutex
	backend    ai.BackendConfig
	backendErr error
	lastErr    error
}

func New(logger *zap.SugaredLogger, opts Options) *Runner {
	r := &Runner{opts: opts, logger: logger}
	if opts.Settings != nil {
		r.apply(opts.Settings.Snapshot())
	}
	return r
}

// Processing true, пока выполняется улучшение.
func (r *Runner) Processing() bool { return r.processing.Load() }

// LastError ошибка последней попытки; nil после успешной.
func (r *Runner) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// Backend текущая конфигурация бэкенда.
func (r *Runner) Backend() (ai.BackendConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backend, r.backendErr
}

func (r *Runner) apply(s settings.Settings) {
	cfg, err := s.BackendConfig()
	r.mu.Lock()
	r.backend, r.backendErr = cfg, err
	r.mu.Unlock()
	if err != nil {
		r.logger.Warnw("Настройки не позволяют выполнить улучшение", "error", err)
		return
	}
	r.logger.Infow("Backend configured", "backend", cfg.Kind, "model", cfg.Model, "base_url", cfg.EffectiveBaseURL())
}

func (r *Runner) setLastErr(err error) {
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
}

func (r *Runner) acquire() bool {
	if !r.processing.CompareAndSwap(false, true) {
		r.logger.Warnw("Улучшение уже выполняется, запрос отклонён")
		metrics.ImprovementsTotal.WithLabelValues(r.backendLabel(), "busy").Inc()
		return false
	}
	metrics.InFlight.Set(1)
	return true
}

func (r *Runner) release() {
	metrics.InFlight.Set(0)
	r.processing.Store(false)
}

// Trigger захватывает выделение, улучшает и вставляет результат обратно.
func (r *Runner) Trigger(ctx context.Context) error {
	if r.opts.Swapper == nil {
		return errors.New("runner: clipboard is not configured")
	}
	if !r.acquire() {
		return ErrBusy
	}
	defer r.release()

	err := r.trigger(ctx)
	r.setLastErr(err)
	r.notify(ctx, err)
	return err
}

func (r *Runner) trigger(ctx context.Context) error {
	cfg, err := r.Backend()
	if err != nil {
		r.logger.Errorw("Improvement not started", "error", err)
		metrics.ImprovementsTotal.WithLabelValues(r.backendLabel(), "config").Inc()
		return err
	}

	text, err := r.opts.Swapper.Capture(ctx)
	if err != nil {
		if errors.Is(err, clipboard.ErrNoTextSelected) {
			r.logger.Warnw("No text selected")
			metrics.ImprovementsTotal.WithLabelValues(cfg.Kind.String(), "no_selection").Inc()
		} else {
			r.logger.Errorw("Failed to capture selection", "error", err)
			metrics.ImprovementsTotal.WithLabelValues(cfg.Kind.String(), "capture").Inc()
		}
		return err
	}

	improved, err := r.improve(ctx, cfg, text)
	if err != nil {
		if rerr := r.opts.Swapper.Restore(ctx); rerr != nil {
			r.logger.Warnw("Не удалось восстановить буфер обмена", "error", rerr)
		}
		return err
	}

	if err := r.opts.Swapper.Replace(ctx, improved); err != nil {
		if errors.Is(err, clipboard.ErrReplaceFailed) {
			r.logger.Errorw("Failed to paste improved text", "error", err)
			return err
		}
		// текст вставлен, потерян только прежний буфер
		r.logger.Warnw("Не удалось восстановить буфер обмена", "error", err)
	}
	r.logger.Infow("Text replaced", "chars", utf8.RuneCountInString(improved))
	return nil
}

// ImproveText улучшает переданный текст без буфера обмена и звуков.
func (r *Runner) ImproveText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if !r.acquire() {
		return "", ErrBusy
	}
	defer r.release()

	cfg, err := r.Backend()
	if err != nil {
		metrics.ImprovementsTotal.WithLabelValues(r.backendLabel(), "config").Inc()
		r.setLastErr(err)
		return "", err
	}
	out, err := r.improve(ctx, cfg, text)
	r.setLastErr(err)
	return out, err
}

func (r *Runner) improve(ctx context.Context, cfg ai.BackendConfig, text string) (string, error) {
	backend := cfg.Kind.String()
	chars := utf8.RuneCountInString(text)
	metrics.InputChars.Observe(float64(chars))

	if t, ok := r.opts.Improver.(interface {
		Translated(ai.BackendConfig, string) bool
	}); ok && t.Translated(cfg, text) {
		r.logger.Infow("Translating", "from", cfg.Translate.From, "to", cfg.Translate.To)
	}
	r.logger.Infow("Improvement started", "backend", backend, "model", cfg.Model, "chars", chars)

	start := time.Now()
	out, err := r.opts.Improver.Improve(ctx, cfg, text)
	elapsed := time.Since(start)
	metrics.ImproveDuration.WithLabelValues(backend).Observe(elapsed.Seconds())

	if err == nil && strings.TrimSpace(out) == "" {
		err = ai.ErrNoContent
	}
	if err != nil {
		r.logger.Errorw("Improvement failed", "backend", backend, "kind", ai.KindOf(err), "error", err)
		metrics.ImprovementsTotal.WithLabelValues(backend, resultOf(err)).Inc()
		return "", err
	}
	r.logger.Infow("Improvement done", "backend", backend, "chars", utf8.RuneCountInString(out), "elapsed_ms", elapsed.Milliseconds())
	metrics.ImprovementsTotal.WithLabelValues(backend, "ok").Inc()
	return out, nil
}

func (r *Runner) notify(ctx context.Context, err error) {
	if r.opts.Notifier == nil {
		return
	}
	// звук не должен обрываться вместе с отменой запроса
	ctx = context.WithoutCancel(ctx)
	if err != nil {
		_ = r.opts.Notifier.PlayFailed(ctx)
		return
	}
	_ = r.opts.Notifier.PlayDone(ctx)
}

// Models каталог моделей настроенного бэкенда. Модель для этого выбирать не нужно.
func (r *Runner) Models(ctx context.Context) ([]string, error) {
	if r.opts.ListModels == nil || r.opts.Settings == nil {
		return nil, errors.New("runner: model listing is not configured")
	}
	cfg, err := r.opts.Settings.Snapshot().Catalog()
	if err != nil {
		return nil, err
	}
	models, err := r.opts.ListModels(ctx, cfg)
	if err != nil {
		r.logger.Warnw("Не удалось получить список моделей", "backend", cfg.Kind, "error", err)
		return nil, err
	}
	r.logger.Infow("Models listed", "backend", cfg.Kind, "count", len(models))
	return models, nil
}

// Run обрабатывает нажатия горячей клавиши и изменения настроек до отмены ctx.
// Нажатие во время выполняющегося улучшения отклоняется с ErrBusy.
func (r *Runner) Run(ctx context.Context) error {
	var updates <-chan settings.Settings
	if r.opts.Settings != nil {
		updates = r.opts.Settings.Subscribe()
	}
	hotkeys := r.opts.Hotkeys

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case s, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			r.apply(s)
		case _, ok := <-hotkeys:
			if !ok {
				hotkeys = nil
				continue
			}
			r.logger.Debugw("Hotkey pressed")
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = r.Trigger(ctx)
			}()
		}
	}
}

func (r *Runner) backendLabel() string {
	cfg, err := r.Backend()
	if err != nil {
		return "unknown"
	}
	return cfg.Kind.String()
}

func resultOf(err error) string {
	if kind := ai.KindOf(err); kind != "" {
		return string(kind)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "error"
}
