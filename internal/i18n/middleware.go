package i18n

import "net/http"

// Имена cookie и query-параметра явного выбора языка.
const (
	LangCookieName = "lang"
	LangQueryParam = "lang"
)

// Middleware кладёт язык запроса в контекст. Порядок источников:
// ?lang, cookie "lang", Accept-Language, defaultLang.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	if !IsSupported(defaultLang) {
		defaultLang = LangEnglish
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), requestLang(r, defaultLang))))
		})
	}
}

func requestLang(r *http.Request, fallback string) string {
	candidates := []string{r.URL.Query().Get(LangQueryParam)}
	if c, err := r.Cookie(LangCookieName); err == nil {
		candidates = append(candidates, c.Value)
	}
	for _, lang := range candidates {
		if IsSupported(lang) {
			return lang
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return MatchLanguage(accept)
	}
	return fallback
}
