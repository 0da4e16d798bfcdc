package hotkey

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported глобальные горячие клавиши недоступны на этой платформе.
var ErrUnsupported = errors.New("hotkey: global hotkeys are not supported on this platform")

// Event нажатие зарегистрированного сочетания.
type Event struct {
	At time.Time
}

// Service минимальный интерфейс сервиса горячей клавиши.
type Service interface {
	Run(ctx context.Context) error
	Events() <-chan Event
}

// Config параметры сервиса.
type Config struct {
	Combo Combo
	// Cooldown минимальный интервал между событиями; дребезг отбрасывается
	Cooldown time.Duration
}

// listener платформенный источник нажатий. Реализация под Windows в listener_windows.go
type listener interface {
	run(ctx context.Context, out chan<- Event) error
}

// newListener подменяется в тестах.
var newListener = newPlatformListener

type service struct {
	cfg Config
	raw chan Event
	out chan Event

	last time.Time
}

// New создаёт сервис горячей клавиши.
func New(cfg Config) Service {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 300 * time.Millisecond
	}
	return &service{
		cfg: cfg,
		raw: make(chan Event, 16),
		out: make(chan Event, 16),
	}
}

func (s *service) Events() <-chan Event { return s.out }

// Run регистрирует сочетание и ретранслирует нажатия до отмены контекста.
func (s *service) Run(ctx context.Context) error {
	l, err := newListener(s.cfg.Combo)
	if err != nil {
		close(s.out)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- l.run(ctx, s.raw) }()

	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			<-errCh
			return context.Cause(ctx)
		case err := <-errCh:
			return err
		case ev := <-s.raw:
			if !s.last.IsZero() && ev.At.Sub(s.last) < s.cfg.Cooldown {
				continue
			}
			s.last = ev.At
			s.safeSend(ev)
		}
	}
}

func (s *service) safeSend(ev Event) {
	select {
	case s.out <- ev:
	default:
		// в случае переполнения: дроп, чтобы не блокировать
	}
}
