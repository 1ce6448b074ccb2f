package i18n

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
)

func TestInit_LoadsEmbeddedCatalogs(t *testing.T) {
	b, err := Init(nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := b.Translate(LangUkrainian, "api.unit_not_found"); got != "Підрозділ не знайдено" {
		t.Errorf("uk api.unit_not_found = %q", got)
	}
	if got := b.Translate(LangEnglish, "api.unit_not_found"); got != "Unit not found" {
		t.Errorf("en api.unit_not_found = %q", got)
	}
}

// TestCatalogs_SameKeys проверяет, что каталоги содержат одинаковый набор ключей.
func TestCatalogs_SameKeys(t *testing.T) {
	load := func(lang string) map[string]string {
		data, err := LocaleFS.ReadFile("locales/" + lang + ".json")
		if err != nil {
			t.Fatalf("ReadFile %s: %v", lang, err)
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("Unmarshal %s: %v", lang, err)
		}
		return m
	}
	en, uk := load(LangEnglish), load(LangUkrainian)
	for k := range en {
		if _, ok := uk[k]; !ok {
			t.Errorf("ключ %q отсутствует в uk.json", k)
		}
	}
	for k := range uk {
		if _, ok := en[k]; !ok {
			t.Errorf("ключ %q отсутствует в en.json", k)
		}
	}
}

func TestTranslate_Fallback(t *testing.T) {
	b := NewBundle(nil)
	if err := b.LoadMessages("en", []byte(`{"only.en": "English"}`)); err != nil {
		t.Fatal(err)
	}
	if err := b.LoadMessages("uk", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if got := b.Translate("uk", "only.en"); got != "English" {
		t.Errorf("fallback = %q, ожидался английский", got)
	}
	if got := b.Translate("uk", "missing"); got != "missing" {
		t.Errorf("missing = %q, ожидался ключ", got)
	}
	if err := b.LoadMessages("en", []byte(`{bad`)); err == nil {
		t.Error("ожидалась ошибка парсинга")
	}
}

func TestStatusLabel_AllStatuses(t *testing.T) {
	for _, s := range workflow.All() {
		for _, lang := range []string{LangEnglish, LangUkrainian} {
			key := StatusKey(s)
			if got := Default().Translate(lang, key); got == key {
				t.Errorf("нет перевода %q для %s", key, lang)
			}
		}
	}
	if got := StatusLabel(LangEnglish, workflow.StatusJiraTicket); got != "Jira ticket" {
		t.Errorf("StatusLabel = %q", got)
	}
	if got := StatusLabel(LangUkrainian, "Невідомий"); got != "Невідомий" {
		t.Errorf("неизвестный статус = %q, ожидался как есть", got)
	}
}

func TestTf(t *testing.T) {
	ctx := WithLang(context.Background(), LangUkrainian)
	got := Tf(ctx, "validation.required", FieldLabel(LangUkrainian, "mil_unit"))
	if !strings.Contains(got, "Військова частина") {
		t.Errorf("Tf = %q", got)
	}
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"uk-UA,uk;q=0.9,en;q=0.8", "uk"},
		{"en-US,en;q=0.9", "en"},
		{"de-DE", "en"},
		{"", "en"},
	}
	for _, tt := range tests {
		if got := MatchLanguage(tt.accept); got != tt.want {
			t.Errorf("MatchLanguage(%q) = %q, ожидался %q", tt.accept, got, tt.want)
		}
	}
}

func TestMiddleware_Priority(t *testing.T) {
	var got string
	h := Middleware(LangUkrainian)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = LangFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		target string
		want   string
	}{
		{"по умолчанию", func(*http.Request) {}, "/", "uk"},
		{"Accept-Language", func(r *http.Request) { r.Header.Set("Accept-Language", "en-GB") }, "/", "en"},
		{"cookie важнее заголовка", func(r *http.Request) {
			r.Header.Set("Accept-Language", "en-GB")
			r.AddCookie(&http.Cookie{Name: LangCookieName, Value: "uk"})
		}, "/", "uk"},
		{"query важнее cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: LangCookieName, Value: "uk"})
		}, "/?lang=en", "en"},
		{"неподдерживаемый query игнорируется", func(*http.Request) {}, "/?lang=fr", "uk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			tt.setup(r)
			h.ServeHTTP(httptest.NewRecorder(), r)
			if got != tt.want {
				t.Errorf("lang = %q, ожидался %q", got, tt.want)
			}
		})
	}
}
