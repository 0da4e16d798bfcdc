package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config параметры процесса. Пользовательские настройки (ключ, бэкенд, модель, промпт)
// живут отдельно, в internal/settings, и меняются без перезапуска.
type Config struct {
	DebugMode    bool   `env:"DEBUG_MODE"`    // Режим дебага: development-логгер и уровень debug
	Mock         bool   `env:"MOCK"`          // Заглушка вместо реального бэкенда
	SettingsPath string `env:"SETTINGS_PATH"` // Файл пользовательских настроек

	// Горячая клавиша и буфер обмена
	Hotkey     string        `env:"HOTKEY"`      // Сочетание, напр. ctrl+alt+shift+c
	CopyDelay  time.Duration `env:"COPY_DELAY"`  // Ожидание после Ctrl+C перед чтением буфера
	PasteDelay time.Duration `env:"PASTE_DELAY"` // Ожидание после Ctrl+V перед восстановлением буфера

	// HTTP-клиент бэкендов; 0: без таймаута сверх платформенного
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT"`

	JournalMax int `env:"JOURNAL_MAX"` // Максимум записей журнала в памяти

	Notify  NotifyConfig
	Control ControlConfig
}

// NotifyConfig звуки по завершении улучшения.
type NotifyConfig struct {
	Enabled    bool    `env:"NOTIFY_ENABLED"`
	SoundDone  string  `env:"NOTIFY_SOUND_DONE"`   // Путь к mp3/wav; пусто: sound/done.mp3 рядом с бинарём
	SoundError string  `env:"NOTIFY_SOUND_FAILED"` // Путь к mp3/wav; пусто: sound/failed.mp3 рядом с бинарём
	VolumeDB   float64 `env:"NOTIFY_VOLUME_DB"`   // Громкость в dB, отрицательные: тише
}

// ControlConfig локальный HTTP-интерфейс управления.
type ControlConfig struct {
	Enabled  bool   `env:"CONTROL_ENABLED"`   // Главный флаг включения
	BindAddr string `env:"CONTROL_BIND_ADDR"` // Адрес слушателя, напр. 127.0.0.1:3131
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:    false,
		SettingsPath: "butler.env",
		Hotkey:       "ctrl+alt+shift+c",
		CopyDelay:    100 * time.Millisecond,
		PasteDelay:   100 * time.Millisecond,
		JournalMax:   1000,
		Notify: NotifyConfig{
			Enabled: true,
		},
		Control: ControlConfig{
			Enabled:  false,
			BindAddr: "127.0.0.1:3131",
		},
	}
}

// NewConfig загружает конфигурацию приложения из .env, окружения и флагов os.Args.
func NewConfig() *Config {
	cfg, err := Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load загружает конфигурацию с заданным набором флагов. Остальные флаги
// (например, специфичные для команды) можно зарегистрировать в fs до вызова.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	_ = godotenv.Load()

	// Стартуем с дефолтов, затем перекрываем .env/окружением и флагами
	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	fs.BoolVar(&cfg.Mock, "mock", cfg.Mock, "использовать заглушку вместо реального бэкенда")
	fs.StringVar(&cfg.SettingsPath, "settings", cfg.SettingsPath, "путь к файлу пользовательских настроек")
	fs.StringVar(&cfg.Hotkey, "hotkey", cfg.Hotkey, "глобальная горячая клавиша, напр. ctrl+alt+shift+c")
	fs.DurationVar(&cfg.CopyDelay, "copy-delay", cfg.CopyDelay, "ожидание после Ctrl+C перед чтением буфера, напр. 100ms")
	fs.DurationVar(&cfg.PasteDelay, "paste-delay", cfg.PasteDelay, "ожидание после Ctrl+V перед восстановлением буфера")
	fs.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "таймаут HTTP-клиента бэкендов (0: по умолчанию платформы)")
	fs.IntVar(&cfg.JournalMax, "journal-max", cfg.JournalMax, "максимум записей журнала в памяти")
	// Звуки
	fs.BoolVar(&cfg.Notify.Enabled, "notify-enabled", cfg.Notify.Enabled, "проигрывать звук по завершении")
	fs.StringVar(&cfg.Notify.SoundDone, "notify-sound-done", cfg.Notify.SoundDone, "звук успешного улучшения (mp3 или wav)")
	fs.StringVar(&cfg.Notify.SoundError, "notify-sound-failed", cfg.Notify.SoundError, "звук ошибки (mp3 или wav)")
	fs.Float64Var(&cfg.Notify.VolumeDB, "notify-volume-db", cfg.Notify.VolumeDB, "громкость звуков в dB (отрицательные: тише)")
	// Control
	fs.BoolVar(&cfg.Control.Enabled, "control-enabled", cfg.Control.Enabled, "включить локальный HTTP-интерфейс управления")
	fs.StringVar(&cfg.Control.BindAddr, "control-bind-addr", cfg.Control.BindAddr, "адрес HTTP-интерфейса управления (напр. 127.0.0.1:3131)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.SettingsPath) == "" {
		errs = append(errs, errors.New("config: settings path is empty"))
	}
	if strings.TrimSpace(c.Hotkey) == "" {
		errs = append(errs, errors.New("config: hotkey is empty"))
	}
	if c.CopyDelay < 0 || c.PasteDelay < 0 {
		errs = append(errs, errors.New("config: delays must not be negative"))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, errors.New("config: http timeout must not be negative"))
	}
	if c.JournalMax <= 0 {
		c.JournalMax = Defaults().JournalMax
	}
	if c.Control.Enabled && strings.TrimSpace(c.Control.BindAddr) == "" {
		errs = append(errs, errors.New("config: control enabled without bind address"))
	}
	return errors.Join(errs...)
}
