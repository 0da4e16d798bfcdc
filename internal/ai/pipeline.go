package ai

import "context"

// Improver интерфейс улучшения текста. Все реализации взаимозаменяемы.
type Improver interface {
	Improve(ctx context.Context, cfg BackendConfig, text string) (string, error)
}

// Pipeline предпроверка языка → сборка запроса → транспорт → разбор ответа.
// Между вызовами состояния не хранит, поэтому безопасен для параллельных вызовов.
type Pipeline struct {
	transport Transport
	detector  LanguageDetector
}

// NewPipeline создаёт конвейер. detector может быть nil: тогда предпроверки нет.
func NewPipeline(transport Transport, detector LanguageDetector) *Pipeline {
	return &Pipeline{transport: transport, detector: detector}
}

// Improve выполняет один вызов. Ошибки возвращаются без изменений, конвейер ничего не логирует.
func (p *Pipeline) Improve(ctx context.Context, cfg BackendConfig, text string) (string, error) {
	instruction, _ := precheck(p.detector, cfg, text)
	return p.call(ctx, cfg, instruction, text)
}

// Translated сообщает, пойдёт ли текст по ветке перевода. Удобно для журнала вызывающего.
func (p *Pipeline) Translated(cfg BackendConfig, text string) bool {
	_, translated := precheck(p.detector, cfg, text)
	return translated
}

func (p *Pipeline) call(ctx context.Context, cfg BackendConfig, instruction, text string) (string, error) {
	req, err := BuildRequest(cfg, instruction, text)
	if err != nil {
		return "", err
	}
	status, body, err := p.transport.Do(ctx, req)
	if err != nil {
		if KindOf(err) == "" {
			err = &Error{Kind: NetworkError, Err: err}
		}
		return "", err
	}
	return Interpret(cfg.Kind, status, body)
}
