package notify

import (
	"Butler/internal/service/player"
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Notifier звуковая обратная связь по результату улучшения.
type Notifier interface {
	PlayDone(ctx context.Context) error
	PlayFailed(ctx context.Context) error
}

// SoundNotifier инкапсулирует логику проигрывания короткого звука-уведомления.
type SoundNotifier struct {
	logger     *zap.SugaredLogger
	enabled    bool
	pathDone   string
	pathFailed string
	ply        player.Player
}

// Options параметры нотификатора. Пустые пути заменяются дефолтами
// sound/done.mp3 и sound/failed.mp3 (сначала пытаемся рядом с бинарём).
type Options struct {
	Enabled    bool
	PathDone   string
	PathFailed string
	VolumeDB   float64
	Player     player.Player // nil: player.NewWithVolume(VolumeDB)
}

// NewSoundNotifier создаёт нотификатор.
func NewSoundNotifier(logger *zap.SugaredLogger, opts Options) *SoundNotifier {
	if strings.TrimSpace(opts.PathDone) == "" {
		opts.PathDone = resolve(filepath.Join("sound", "done.mp3"))
	}
	if strings.TrimSpace(opts.PathFailed) == "" {
		opts.PathFailed = resolve(filepath.Join("sound", "failed.mp3"))
	}
	ply := opts.Player
	if ply == nil {
		ply = player.NewWithVolume(opts.VolumeDB)
	}
	return &SoundNotifier{
		logger:     logger,
		enabled:    opts.Enabled,
		pathDone:   opts.PathDone,
		pathFailed: opts.PathFailed,
		ply:        ply,
	}
}

func resolve(def string) string {
	// Путь по умолчанию: рядом с бинарём
	if exe, err := os.Executable(); err == nil {
		cand := filepath.Join(filepath.Dir(exe), def)
		if _, statErr := os.Stat(cand); statErr == nil {
			return cand
		}
	}
	// fallback: от текущей рабочей директории
	return filepath.FromSlash(def)
}

// play проигрывает звук уведомления. Ошибки логируются и возвращаются,
// чтобы вызывающий мог принять решение (например, проигнорировать).
func (n *SoundNotifier) play(ctx context.Context, path string) error {
	if !n.enabled {
		return nil
	}
	if err := context.Cause(ctx); err != nil {
		return err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		ext = "mp3" // по умолчанию
	}

	f, err := os.Open(path)
	if err != nil {
		if n.logger != nil {
			n.logger.Warnw("Не удалось открыть звуковой файл уведомления", "path", path, "error", err)
		}
		return err
	}
	defer f.Close()

	if err := n.ply.Play(ctx, ext, f); err != nil {
		if n.logger != nil {
			n.logger.Warnw("Не удалось воспроизвести звуковое уведомление", "path", path, "error", err)
		}
		return err
	}
	return nil
}

// PlayDone звук успешной замены текста.
func (n *SoundNotifier) PlayDone(ctx context.Context) error { return n.play(ctx, n.pathDone) }

// PlayFailed звук ошибки.
func (n *SoundNotifier) PlayFailed(ctx context.Context) error { return n.play(ctx, n.pathFailed) }
