package ai

import (
	"fmt"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageDetector определяет доминирующий язык текста (код ISO 639-1, пусто: не удалось).
// candidates сужает выбор до перечисленных языков; без них рассматриваются все.
type LanguageDetector interface {
	Detect(text string, candidates ...string) string
}

// WhatlangDetector эвристика на whatlanggo. Порога уверенности нет.
// На коротких фразах без ограничения кандидатов она часто ошибается,
// поэтому precheck передаёт пару языков правила перевода.
type WhatlangDetector struct{}

func (WhatlangDetector) Detect(text string, candidates ...string) string {
	return whatlanggo.DetectWithOptions(text, whitelist(candidates)).Lang.Iso6391()
}

// whitelist строит ограничение для whatlanggo. Если хоть один язык неизвестен
// библиотеке, ограничения нет: иначе любой текст определился бы как оставшийся язык.
func whitelist(codes []string) whatlanggo.Options {
	if len(codes) < 2 {
		return whatlanggo.Options{}
	}
	wl := make(map[whatlanggo.Lang]bool, len(codes))
	for _, code := range codes {
		base, err := language.ParseBase(code)
		if err != nil {
			return whatlanggo.Options{}
		}
		l := whatlanggo.CodeToLang(base.ISO3())
		if l < 0 {
			return whatlanggo.Options{}
		}
		wl[l] = true
	}
	return whatlanggo.Options{Whitelist: wl}
}

// translateInstruction инструкция «перевести и улучшить».
func translateInstruction(rule TranslateRule) string {
	return fmt.Sprintf(
		"Translate this %s text to %s and improve its clarity and fluency while maintaining the original meaning. "+
			"Return only the improved text without any explanations or additional comments.",
		languageName(rule.From), languageName(rule.To),
	)
}

func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// precheck выбирает эффективную инструкцию для текста.
func precheck(d LanguageDetector, cfg BackendConfig, text string) (instruction string, translated bool) {
	if d == nil || !cfg.Translate.enabled() {
		return cfg.SystemPrompt, false
	}
	if d.Detect(text, cfg.Translate.From, cfg.Translate.To) == cfg.Translate.From {
		return translateInstruction(cfg.Translate), true
	}
	return cfg.SystemPrompt, false
}
