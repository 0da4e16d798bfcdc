package ai

import (
	"fmt"
	"strings"
)

const (
	// DefaultHostedBaseURL адрес OpenAI API по умолчанию.
	DefaultHostedBaseURL = "https://api.openai.com/v1"
	// DefaultLocalBaseURL адрес локального сервера Ollama по умолчанию.
	DefaultLocalBaseURL = "http://localhost:11434"
	// DefaultHostedModel модель, которая выбирается для hosted по умолчанию.
	DefaultHostedModel = "gpt-4o-mini"
)

// BackendKind закрытый набор поддерживаемых бэкендов.
type BackendKind int

const (
	Hosted BackendKind = iota + 1 // OpenAI или совместимый с ним API
	Local                         // локальный сервер моделей (Ollama)
)

func (k BackendKind) String() string {
	switch k {
	case Hosted:
		return "hosted"
	case Local:
		return "local"
	default:
		return fmt.Sprintf("backend(%d)", int(k))
	}
}

// ParseBackendKind разбирает значение настройки backend. Старые значения
// openai|ollama принимаются как синонимы.
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hosted", "openai":
		return Hosted, nil
	case "local", "ollama":
		return Local, nil
	default:
		return 0, fmt.Errorf("unknown backend %q: use hosted|local", s)
	}
}

// TranslateRule описывает языковую предпроверку: текст на языке From
// переводится на язык To и улучшается. Нулевое значение отключает проверку.
// Языки задаются кодами ISO 639-1.
type TranslateRule struct {
	From string
	To   string
}

func (r TranslateRule) enabled() bool { return r.From != "" && r.To != "" }

// BackendConfig неизменяемое описание бэкенда для одного вызова.
// Собирается целиком из снимка настроек и передаётся по значению.
type BackendConfig struct {
	Kind         BackendKind
	BaseURL      string
	Model        string
	APIKey       string
	SystemPrompt string
	Translate    TranslateRule
}

// EffectiveBaseURL возвращает базовый адрес, к которому строятся пути запросов.
func (c BackendConfig) EffectiveBaseURL() string {
	if c.Kind == Hosted {
		base := strings.TrimSpace(c.BaseURL)
		if base == "" || base == DefaultHostedBaseURL {
			return DefaultHostedBaseURL
		}
	}
	return c.BaseURL
}
