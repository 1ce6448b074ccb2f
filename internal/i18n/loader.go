package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
)

// LocaleFS — каталоги переводов, по одному JSON-файлу на язык (locales/<lang>.json).
//
//go:embed locales/*.json
var LocaleFS embed.FS

// LoadFromEmbedFS загружает в bundle каталоги всех поддерживаемых языков.
// Отсутствие каталога поддерживаемого языка — ошибка.
func LoadFromEmbedFS(bundle *Bundle, logger *slog.Logger) error {
	files, err := fs.Glob(LocaleFS, "locales/*.json")
	if err != nil {
		return fmt.Errorf("i18n: поиск каталогов: %w", err)
	}

	loaded := make(map[string]bool, len(files))
	for _, file := range files {
		lang := strings.TrimSuffix(path.Base(file), ".json")
		if !IsSupported(lang) {
			continue
		}
		data, err := LocaleFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("i18n: чтение %s: %w", file, err)
		}
		if err := bundle.LoadMessages(lang, data); err != nil {
			return err
		}
		loaded[lang] = true
	}

	for _, lang := range []string{LangEnglish, LangUkrainian} {
		if !loaded[lang] {
			return fmt.Errorf("i18n: нет каталога для %q", lang)
		}
	}

	if logger != nil {
		logger.Info("Каталоги переводов загружены", slog.Int("languages", len(loaded)))
	}
	return nil
}
