package ai

import (
	"context"
	"strings"
)

// StubImprover заглушка, которая не делает сетевых запросов: возвращает текст как есть.
// Используется в режиме -mock для проверки горячей клавиши и буфера обмена.
type StubImprover struct{}

func NewStubImprover() *StubImprover { return &StubImprover{} }

func (StubImprover) Improve(_ context.Context, _ BackendConfig, text string) (string, error) {
	return strings.TrimSpace(text), nil
}
