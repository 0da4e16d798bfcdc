package control

import (
	"Butler/internal/config"
	"Butler/internal/settings"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Improver операции оболочки приложения, доступные через HTTP.
type Improver interface {
	ImproveText(ctx context.Context, text string) (string, error)
	Models(ctx context.Context) ([]string, error)
}

// Journal журнал приложения.
type Journal interface {
	Export() string
	Clear()
}

// SettingsView снимок пользовательских настроек.
type SettingsView interface {
	Snapshot() settings.Settings
}

// Server локальный HTTP-интерфейс управления.
type Server struct {
	cfg      config.ControlConfig
	srv      *http.Server
	logger   *zap.SugaredLogger
	running  atomic.Bool
	addr     atomic.Value // string, фактический адрес после Start
	improver Improver
	journal  Journal
	settings SettingsView
}

func NewServer(cfg config.ControlConfig, logger *zap.SugaredLogger, improver Improver, journal Journal, view SettingsView) *Server {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "127.0.0.1:3131"
	}
	s := &Server{cfg: cfg, logger: logger, improver: improver, journal: journal, settings: view}
	s.addr.Store(cfg.BindAddr)

	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// улучшение может ждать бэкенд заметно дольше обычного запроса
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start открывает слушатель синхронно (ошибка занятого порта возвращается сразу)
// и обслуживает запросы в фоне до Stop или отмены ctx.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.BindAddr)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("control: listen %s: %w", s.cfg.BindAddr, err)
	}
	s.addr.Store(ln.Addr().String())

	go func() {
		s.logger.Infow("Control server listening", "addr", s.Addr())
		if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) && err != nil {
			s.logger.Errorw("Control server stopped with error", "error", err)
		} else {
			s.logger.Infow("Control server stopped")
		}
	}()

	// Watch for context cancellation to stop the server
	go func() {
		<-ctx.Done()
		_ = s.Stop(context.WithoutCancel(ctx))
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("control-server shutdown timeout"))
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("graceful shutdown error", "error", err)
		return s.srv.Close()
	}
	return nil
}

// Addr адрес слушателя; после Start с портом 0: фактический.
func (s *Server) Addr() string { return s.addr.Load().(string) }
