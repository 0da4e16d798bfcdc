package ai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type successEnvelope struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	// Родной ответ Ollama /api/chat без choices.
	Message *struct {
		Content *string `json:"content"`
	} `json:"message"`
}

// errorEnvelope: OpenAI присылает {"error":{"message":...}}, Ollama: {"error":"..."}.
type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Message *string `json:"message"`
	Type    *string `json:"type"`
	Param   *string `json:"param"`
	Code    any     `json:"code"`
}

// Interpret превращает статус и тело ответа в улучшенный текст или классифицированную ошибку.
func Interpret(kind BackendKind, status int, body []byte) (string, error) {
	if status != http.StatusOK {
		if msg, ok := serviceMessage(body); ok {
			return "", &Error{Kind: ServiceError, Message: msg, StatusCode: status}
		}
		return "", &Error{
			Kind:       InvalidResponse,
			Message:    fmt.Sprintf("HTTP %d", status),
			StatusCode: status,
			Body:       bodyHint(body),
		}
	}

	var env successEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", &Error{Kind: DecodingError, Message: err.Error(), StatusCode: status, Body: bodyHint(body), Err: err}
	}

	var content *string
	switch {
	case len(env.Choices) > 0:
		content = env.Choices[0].Message.Content
	case kind == Local && env.Message != nil:
		content = env.Message.Content
	}
	if content == nil {
		return "", &Error{Kind: NoContent, StatusCode: status}
	}
	return strings.TrimSpace(*content), nil
}

func serviceMessage(body []byte) (string, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Error) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return s, s != ""
	}
	var d errorDetail
	if err := json.Unmarshal(env.Error, &d); err != nil || d.Message == nil {
		return "", false
	}
	return *d.Message, true
}
