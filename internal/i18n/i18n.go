// Пакет i18n — подписи статусов и полей, сообщения API и CLI на
// английском (en) и украинском (uk). Язык запроса кладёт в контекст
// Middleware, T и Tf переводят по нему.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
)

// Коды поддерживаемых языков.
const (
	LangEnglish   = "en"
	LangUkrainian = "uk"
)

// SupportedLanguages — теги для сопоставления Accept-Language,
// первый используется при отсутствии совпадения.
var SupportedLanguages = []language.Tag{
	language.English,
	language.Ukrainian,
}

var matcher = language.NewMatcher(SupportedLanguages)

type ctxKey struct{}

// catalog — плоский словарь ключ → перевод одного языка.
type catalog map[string]string

// Bundle — каталоги переводов всех языков. Безопасен для конкурентного чтения.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]catalog
	logger   *slog.Logger
}

// NewBundle создаёт Bundle без каталогов.
func NewBundle(logger *slog.Logger) *Bundle {
	return &Bundle{catalogs: make(map[string]catalog), logger: logger}
}

// LoadMessages заменяет каталог lang содержимым JSON-объекта {"ключ": "перевод"}.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var c catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("i18n: каталог %s: %w", lang, err)
	}

	b.mu.Lock()
	b.catalogs[lang] = c
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Debug("Каталог переводов загружен", slog.String("lang", lang), slog.Int("keys", len(c)))
	}
	return nil
}

// Translate ищет key в каталоге lang, затем в английском.
// Ненайденный ключ возвращается без изменений.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, l := range [...]string{lang, LangEnglish} {
		if msg, ok := b.catalogs[l][key]; ok {
			return msg
		}
	}
	return key
}

// Translatef — Translate с подстановкой args в формат-строку перевода.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	msg := b.Translate(lang, key)
	if len(args) == 0 {
		return msg
	}
	return formatFunc(msg, args...)
}

var (
	defaultBundle *Bundle
	defaultErr    error
	defaultOnce   sync.Once
)

// Init один раз создаёт общий Bundle из встроенных каталогов.
func Init(logger *slog.Logger) (*Bundle, error) {
	defaultOnce.Do(func() {
		defaultBundle = NewBundle(logger)
		defaultErr = LoadFromEmbedFS(defaultBundle, logger)
	})
	return defaultBundle, defaultErr
}

// Default — общий Bundle; создаётся без логгера, если Init ещё не вызывался.
func Default() *Bundle {
	b, _ := Init(nil)
	return b
}

// WithLang возвращает контекст с языком lang.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext — язык из контекста, по умолчанию английский.
func LangFromContext(ctx context.Context) string {
	if lang, _ := ctx.Value(ctxKey{}).(string); lang != "" {
		return lang
	}
	return LangEnglish
}

// T — перевод key на язык контекста.
func T(ctx context.Context, key string) string {
	return Default().Translate(LangFromContext(ctx), key)
}

// Tf — перевод key на язык контекста с подстановкой args.
func Tf(ctx context.Context, key string, args ...any) string {
	return Default().Translatef(LangFromContext(ctx), key, args...)
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят
// из JSON-каталогов, статическая printf-проверка к ним неприменима.
//
//nolint:govet // обход go vet printf-анализатора
var formatFunc = fmt.Sprintf

// IsSupported проверяет, что lang — поддерживаемый код языка.
func IsSupported(lang string) bool {
	return lang == LangEnglish || lang == LangUkrainian
}

// MatchLanguage определяет лучший язык из Accept-Language заголовка.
// Возвращает "en" или "uk".
func MatchLanguage(acceptLanguage string) string {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	base, _ := tag.Base()
	if base.String() == LangUkrainian {
		return LangUkrainian
	}
	return LangEnglish
}

// StatusKey — ключ каталога для статуса workflow: "status.jira_ticket".
func StatusKey(s workflow.Status) string {
	return "status." + strings.ReplaceAll(strings.ToLower(string(s)), " ", "_")
}

// StatusLabel — подпись статуса на языке lang.
// Неизвестный статус возвращается как есть.
func StatusLabel(lang string, s workflow.Status) string {
	key := StatusKey(s)
	if msg := Default().Translate(lang, key); msg != key {
		return msg
	}
	return string(s)
}

// FieldLabel — подпись поля подразделения на языке lang.
func FieldLabel(lang, field string) string {
	key := "field." + field
	if msg := Default().Translate(lang, key); msg != key {
		return msg
	}
	return field
}
