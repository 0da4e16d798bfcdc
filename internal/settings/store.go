package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"Butler/internal/ai"
)

// Store хранит настройки в env-файле и рассылает снимок после каждого изменения.
// Снимок заменяется целиком, частичных изменений подписчики не видят.
type Store struct {
	path string

	mu      sync.Mutex
	current Settings
	subs    []chan Settings
	closed  bool
}

// Open читает файл настроек. Отсутствующий файл: не ошибка: берутся значения
// по умолчанию, файл появится при первом Update.
func Open(path string) (*Store, error) {
	s, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, current: s}, nil
}

func load(path string) (Settings, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			values = map[string]string{}
		} else {
			return Settings{}, fmt.Errorf("settings: read %s: %w", path, err)
		}
	}

	var s Settings
	if err := env.Parse(&s, env.Options{Environment: values}); err != nil {
		return Settings{}, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	applyMissing(&s, values)
	return s, nil
}

// applyMissing подставляет значения по умолчанию только для ключей, которых нет в файле:
// явно сохранённая пустая строка остаётся пустой.
func applyMissing(s *Settings, values map[string]string) {
	def := Defaults()
	fill := func(key string, dst *string, v string) {
		if _, ok := values[key]; !ok {
			*dst = v
		}
	}
	fill("BUTLER_BACKEND", &s.Backend, def.Backend)
	fill("BUTLER_LOCAL_URL", &s.LocalURL, def.LocalURL)
	fill("BUTLER_MODEL", &s.Model, def.Model)
	fill("BUTLER_PROMPT", &s.Prompt, def.Prompt)
	fill("BUTLER_TARGET_LANGUAGE", &s.TargetLanguage, def.TargetLanguage)
	fill("BUTLER_TRANSLATE_FROM", &s.TranslateFrom, def.TranslateFrom)
}

// Snapshot текущие настройки (копия).
func (s *Store) Snapshot() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Path путь к файлу настроек.
func (s *Store) Path() string { return s.path }

// Update применяет изменение, проверяет, сохраняет и оповещает подписчиков.
// При ошибке текущие настройки не меняются.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("settings: store closed")
	}

	next := s.current
	fn(&next)
	normalizeModel(s.current, &next)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.current = next
	for _, ch := range s.subs {
		publish(ch, next)
	}
	return nil
}

// normalizeModel: при возврате на hosted модель сбрасывается на модель по умолчанию,
// локальные имена моделей там не имеют смысла.
func normalizeModel(prev Settings, next *Settings) {
	prevKind, _ := ai.ParseBackendKind(prev.Backend)
	nextKind, _ := ai.ParseBackendKind(next.Backend)
	if prevKind == ai.Local && nextKind == ai.Hosted && next.Model == prev.Model {
		next.Model = ai.DefaultHostedModel
	}
}

func (s *Store) write(v Settings) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("settings: create dir: %w", err)
		}
	}
	if err := godotenv.Write(v.toMap(), s.path); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.path, err)
	}
	// в файле лежит ключ API
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("settings: chmod %s: %w", s.path, err)
	}
	return nil
}

// Subscribe возвращает канал событий «настройки изменились». Канал хранит только
// последний снимок: медленный подписчик пропускает промежуточные.
func (s *Store) Subscribe() <-chan Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Settings, 1)
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

// Close закрывает каналы подписчиков.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

func publish(ch chan Settings, v Settings) {
	select {
	case ch <- v:
		return
	default:
	}
	// вытесняем устаревший снимок
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
