package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

// searchState — состояние представления живого поиска.
type searchState struct {
	query   string
	results []*model.Unit
	// filtered — results, отфильтрованные локально по текущему вводу
	// до ответа сервера
	filtered []*model.Unit
	visible  bool
	// seq — номер последнего запроса; ответы с меньшим номером отбрасываются
	seq uint64
}

// SearchView — снимок представления поиска.
type SearchView struct {
	Query   string
	Results []*model.Unit
	Visible bool
}

// SetQuery обновляет строку поиска. Пустой ввод скрывает представление.
// Уже полученные результаты сразу фильтруются локально, серверный поиск
// планируется через паузу ввода и только для запроса от MinQueryLength
// символов. Каждый вызов отменяет ранее запланированный поиск.
func (s *Store) SetQuery(q string) {
	trimmed := strings.TrimSpace(q)

	s.mu.Lock()
	s.search.query = q
	if trimmed == "" {
		s.search.visible = false
		s.search.filtered = nil
		s.mu.Unlock()
		s.debouncer.Cancel()
		return
	}
	s.search.filtered = matchLocal(s.search.results, trimmed)
	s.mu.Unlock()

	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		s.debouncer.Cancel()
		return
	}
	s.debouncer.Trigger(func() {
		if err := s.PerformSearch(s.ctx, trimmed); err != nil {
			s.logger.Warn("Ошибка живого поиска",
				slog.String("query", trimmed),
				slog.String("error", err.Error()),
			)
		}
	})
}

// PerformSearch выполняет поиск сразу и показывает представление.
// Ответ, пришедший после более нового запроса или ClearSearch, отбрасывается.
func (s *Store) PerformSearch(ctx context.Context, term string) error {
	s.mu.Lock()
	s.search.seq++
	seq := s.search.seq
	s.mu.Unlock()

	units, err := s.api.Search(ctx, term)
	if err != nil {
		return fmt.Errorf("поиск %q: %w", term, err)
	}
	if units == nil {
		units = []*model.Unit{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.search.seq {
		s.logger.Debug("Устаревший ответ поиска отброшен", slog.String("query", term))
		return nil
	}
	s.search.results = units
	s.search.filtered = units
	s.search.visible = true
	return nil
}

// ClearSearch скрывает представление поиска и сбрасывает его результат.
func (s *Store) ClearSearch() {
	s.debouncer.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.seq++
	s.search.query = ""
	s.search.results = nil
	s.search.filtered = nil
	s.search.visible = false
}

// Search возвращает снимок представления поиска.
func (s *Store) Search() SearchView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SearchView{
		Query:   s.search.query,
		Results: cloneUnits(s.search.filtered),
		Visible: s.search.visible,
	}
}

// matchLocal — подстрока без учёта регистра по названию, бригаде,
// номеру части, описанию и email.
func matchLocal(units []*model.Unit, q string) []*model.Unit {
	out := make([]*model.Unit, 0, len(units))
	for _, u := range units {
		if containsFold(u.MilUnit, q) ||
			optContains(u.NameOfUnit, q) ||
			optContains(u.BrigadeOrHigher, q) ||
			optContains(u.Description, q) ||
			optContains(u.Email, q) {
			out = append(out, u)
		}
	}
	return out
}

func optContains(s *string, q string) bool {
	return s != nil && containsFold(*s, q)
}
