// Package clipboard подменяет содержимое буфера обмена вокруг синтетических Ctrl+C / Ctrl+V,
// сохраняя то, что лежало в буфере у пользователя.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

var (
	ErrNoTextSelected = errors.New("no text selected")
	ErrReplaceFailed  = errors.New("replace selection failed")
	ErrRestoreFailed  = errors.New("restore clipboard failed")
)

// Board текстовый буфер обмена.
type Board interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// Keyboard синтезирует копирование и вставку в активном окне.
type Keyboard interface {
	Copy() error
	Paste() error
}

// SystemBoard системный буфер обмена.
type SystemBoard struct{}

func (SystemBoard) ReadText() (string, error)   { return clipboard.ReadAll() }
func (SystemBoard) WriteText(text string) error { return clipboard.WriteAll(text) }

// Swapper выполняет захват выделения и его замену. Предыдущее содержимое буфера
// хранится между Capture и Replace/Restore и забывается после них.
type Swapper struct {
	Board      Board
	Keyboard   Keyboard
	CopyDelay  time.Duration
	PasteDelay time.Duration

	mu    sync.Mutex
	saved *string
}

// Capture копирует выделенный текст. Если ничего не выделено, буфер восстанавливается
// и возвращается ErrNoTextSelected.
func (s *Swapper) Capture(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// ошибка чтения: в буфере не текст (картинка, файлы) или он пуст.
	// Такой буфер не трогаем: вернуть его содержимое мы не сможем.
	s.saved = nil
	if prev, err := s.Board.ReadText(); err == nil {
		// очищаем, чтобы старое содержимое не приняли за выделение
		if err := s.Board.WriteText(""); err != nil {
			return "", fmt.Errorf("clear clipboard: %w", err)
		}
		s.saved = &prev
	}
	if err := s.Keyboard.Copy(); err != nil {
		_ = s.restoreLocked()
		return "", fmt.Errorf("send copy: %w", err)
	}
	if err := wait(ctx, s.CopyDelay); err != nil {
		_ = s.restoreLocked()
		return "", err
	}

	text, err := s.Board.ReadText()
	if err != nil || strings.TrimSpace(text) == "" {
		if rerr := s.restoreLocked(); rerr != nil {
			return "", errors.Join(ErrNoTextSelected, rerr)
		}
		return "", ErrNoTextSelected
	}
	return text, nil
}

// Replace вставляет text вместо выделения и возвращает пользователю прежний буфер.
func (s *Swapper) Replace(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var replaceErr error
	if err := s.Board.WriteText(text); err != nil {
		replaceErr = fmt.Errorf("%w: write: %w", ErrReplaceFailed, err)
	} else if err := s.Keyboard.Paste(); err != nil {
		replaceErr = fmt.Errorf("%w: send paste: %w", ErrReplaceFailed, err)
	} else if err := wait(ctx, s.PasteDelay); err != nil {
		replaceErr = fmt.Errorf("%w: %w", ErrReplaceFailed, err)
	}

	restoreErr := s.restoreLocked()
	if replaceErr != nil {
		return replaceErr
	}
	return restoreErr
}

// Restore возвращает сохранённое содержимое без вставки.
func (s *Swapper) Restore(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoreLocked()
}

func (s *Swapper) restoreLocked() error {
	if s.saved == nil {
		return nil
	}
	prev := *s.saved
	s.saved = nil
	if err := s.Board.WriteText(prev); err != nil {
		return fmt.Errorf("%w: %w", ErrRestoreFailed, err)
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
