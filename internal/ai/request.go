package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Фиксированные параметры сэмплирования.
const (
	temperature      = 0.7
	topP             = 1
	maxTokens        = 4096
	frequencyPenalty = 0
	presencePenalty  = 0
)

// Request готовый к отправке HTTP-запрос без привязки к net/http.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
	// Только для Local: /api/chat у Ollama по умолчанию отвечает потоком.
	Stream *bool `json:"stream,omitempty"`
}

// BuildRequest собирает запрос улучшения текста для выбранного бэкенда.
// Для Hosted без ключа возвращает ErrMissingCredential до любой сетевой активности.
// Одинаковые входные данные дают побайтно одинаковое тело.
func BuildRequest(cfg BackendConfig, instruction, text string) (Request, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	payload := chatRequest{
		Model: cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: text},
		},
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		TopP:             topP,
		FrequencyPenalty: frequencyPenalty,
		PresencePenalty:  presencePenalty,
	}

	var url string
	switch cfg.Kind {
	case Hosted:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return Request{}, &Error{Kind: MissingCredential}
		}
		header.Set("Authorization", "Bearer "+cfg.APIKey)
		url = chatCompletionsURL(cfg.EffectiveBaseURL())
	case Local:
		stream := false
		payload.Stream = &stream
		url = strings.TrimRight(cfg.EffectiveBaseURL(), "/") + "/api/chat"
	default:
		return Request{}, fmt.Errorf("build request: unsupported backend %v", cfg.Kind)
	}

	body, err := encodeJSON(payload)
	if err != nil {
		return Request{}, fmt.Errorf("build request: marshal: %w", err)
	}

	return Request{
		Method: http.MethodPost,
		URL:    url,
		Header: header,
		Body:   body,
	}, nil
}

// chatCompletionsURL приводит любой базовый адрес к .../v1/chat/completions:
// база может уже оканчиваться на /v1, а может быть корнем прокси.
func chatCompletionsURL(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// encodeJSON сериализует без экранирования HTML: текст пользователя уходит как есть.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
