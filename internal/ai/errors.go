package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind классифицирует ошибку конвейера улучшения текста.
type ErrorKind string

const (
	MissingCredential ErrorKind = "missing_credential"
	NetworkError      ErrorKind = "network_error"
	InvalidResponse   ErrorKind = "invalid_response"
	ServiceError      ErrorKind = "service_error"
	DecodingError     ErrorKind = "decoding_error"
	NoContent         ErrorKind = "no_content"
)

// Эталоны для errors.Is: совпадение только по Kind.
var (
	ErrMissingCredential = &Error{Kind: MissingCredential}
	ErrNetwork           = &Error{Kind: NetworkError}
	ErrInvalidResponse   = &Error{Kind: InvalidResponse}
	ErrService           = &Error{Kind: ServiceError}
	ErrDecoding          = &Error{Kind: DecodingError}
	ErrNoContent         = &Error{Kind: NoContent}
)

// Error терминальная ошибка одного вызова. Повторов нет.
type Error struct {
	Kind ErrorKind
	// Message для ServiceError: текст от сервиса как есть, для InvalidResponse: "HTTP <code>".
	Message    string
	StatusCode int
	// Body начало тела ответа (не более bodyHintLen байт) для диагностики.
	Body string
	Err  error
}

const bodyHintLen = 100

func (e *Error) Error() string {
	switch e.Kind {
	case MissingCredential:
		return "the API key is missing or not configured"
	case NetworkError:
		return fmt.Sprintf("network error: %v", e.Err)
	case InvalidResponse:
		if e.Body != "" {
			return fmt.Sprintf("invalid response from server (%s): %s", e.Message, e.Body)
		}
		return fmt.Sprintf("invalid response from server (%s)", e.Message)
	case ServiceError:
		if strings.TrimSpace(e.Message) == "" {
			return fmt.Sprintf("service error (HTTP %d)", e.StatusCode)
		}
		return e.Message
	case DecodingError:
		return fmt.Sprintf("failed to decode response: %s", e.Message)
	case NoContent:
		return "response did not contain any content"
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает по Kind с эталонами вида ErrNoContent.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// KindOf возвращает класс ошибки конвейера или пустую строку.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func bodyHint(body []byte) string {
	if len(body) <= bodyHintLen {
		return string(body)
	}
	// обрезка может разрезать руну: неполный хвост отбрасываем
	return strings.ToValidUTF8(string(body[:bodyHintLen]), "") + "…"
}
