// Пакет dashboard — клиентское хранилище состояния: полный набор
// подразделений и два производных представления. Dashboard — фильтры
// и сортировка поверх всех записей. Поиск — отдельный результат
// серверного поиска с задержкой ввода.
package dashboard

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

// SearchDelay — пауза ввода перед поисковым запросом.
const SearchDelay = 300 * time.Millisecond

// MinQueryLength — минимальная длина запроса (после trim) для живого поиска.
const MinQueryLength = 2

// API — операции сервера, нужные хранилищу. Реализуется client.Client.
type API interface {
	List(ctx context.Context) ([]*model.Unit, error)
	Get(ctx context.Context, id int64) (*model.Unit, error)
	Create(ctx context.Context, fields model.UnitFields) (*model.Unit, error)
	Update(ctx context.Context, id int64, fields model.UnitFields) (*model.Unit, error)
	Delete(ctx context.Context, id int64) (string, error)
	Search(ctx context.Context, term string) ([]*model.Unit, error)
	Stats(ctx context.Context) ([]model.StatusCount, error)
}

// DashboardView — снимок представления dashboard.
type DashboardView struct {
	Filters   map[string]string
	SortField string
	SortDir   Direction
	Result    []*model.Unit
}

// Option — настройка Store.
type Option func(*Store)

// WithSearchDelay задаёт паузу ввода перед поиском.
func WithSearchDelay(d time.Duration) Option {
	return func(s *Store) {
		s.debouncer = NewDebouncer(d)
	}
}

// Store — единый источник истины клиентского состояния.
// Методы безопасны для конкурентного вызова; снимки отдаются копиями.
type Store struct {
	api    API
	logger *slog.Logger

	// ctx отменяется в Close и прерывает фоновые запросы.
	ctx    context.Context
	cancel context.CancelFunc

	debouncer *Debouncer

	mu sync.Mutex
	// all — все подразделения в порядке сервера (новые первыми)
	all []*model.Unit
	// dashboard
	filters   map[string]string
	sortField string
	sortDir   Direction
	result    []*model.Unit
	// current — открытое подразделение
	current *model.Unit
	// search
	search searchState
	// stats
	counts   []model.StatusCount
	loadedAt time.Time
	statsAt  time.Time
}

// NewStore создаёт хранилище поверх api.
func NewStore(api API, logger *slog.Logger, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		api:     api,
		logger:  logger.With(slog.String("component", "dashboard_store")),
		ctx:     ctx,
		cancel:  cancel,
		filters: make(map[string]string),
		sortDir: Asc,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.debouncer == nil {
		s.debouncer = NewDebouncer(SearchDelay)
	}
	return s
}

// Close отменяет отложенный поиск и фоновые запросы.
// После Close ни один отложенный поиск не выполняется.
func (s *Store) Close() {
	s.cancel()
	s.debouncer.Close()
}

// Load запрашивает все подразделения, заменяет набор целиком и
// пересчитывает dashboard с текущими фильтрами и сортировкой.
func (s *Store) Load(ctx context.Context) error {
	units, err := s.api.List(ctx)
	if err != nil {
		return fmt.Errorf("загрузка подразделений: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = units
	if s.all == nil {
		s.all = []*model.Unit{}
	}
	s.loadedAt = time.Now()
	s.deriveLocked()
	return nil
}

// All возвращает копию полного набора.
func (s *Store) All() []*model.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUnits(s.all)
}

// Dashboard возвращает снимок представления dashboard.
func (s *Store) Dashboard() DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	filters := make(map[string]string, len(s.filters))
	for k, v := range s.filters {
		filters[k] = v
	}
	return DashboardView{
		Filters:   filters,
		SortField: s.sortField,
		SortDir:   s.sortDir,
		Result:    cloneUnits(s.result),
	}
}

// LoadedAt — время последней успешной загрузки.
func (s *Store) LoadedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedAt
}

// SetFilter добавляет или заменяет один фильтр и пересчитывает dashboard.
// Пустое значение снимает фильтр.
func (s *Store) SetFilter(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.filters, field)
	} else {
		s.filters[field] = value
	}
	s.deriveLocked()
}

// ClearFilters снимает все фильтры; сортировка сохраняется.
func (s *Store) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = make(map[string]string)
	s.deriveLocked()
}

// Sort сортирует текущий результат dashboard по field, полный набор не
// затрагивается. Повторный вызов с тем же полем меняет направление, новое
// поле сортируется по возрастанию. Равные записи идут в порядке полного
// набора, поэтому предыдущая сортировка на результат не влияет.
func (s *Store) Sort(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if field == s.sortField {
		s.sortDir = s.sortDir.Reverse()
	} else {
		s.sortField = field
		s.sortDir = Asc
	}
	s.result = SortUnits(s.inAllOrderLocked(s.result), s.sortField, s.sortDir)
}

// inAllOrderLocked возвращает units в порядке их позиций в s.all.
func (s *Store) inAllOrderLocked(units []*model.Unit) []*model.Unit {
	pos := make(map[int64]int, len(s.all))
	for i, u := range s.all {
		pos[u.ID] = i
	}
	out := slices.Clone(units)
	slices.SortStableFunc(out, func(a, b *model.Unit) int {
		return cmp.Compare(pos[a.ID], pos[b.ID])
	})
	return out
}

// deriveLocked пересчитывает результат: фильтры, затем сортировка.
func (s *Store) deriveLocked() {
	s.result = SortUnits(ApplyFilters(s.all, s.filters), s.sortField, s.sortDir)
}

// Open загружает подразделение и делает его текущим.
func (s *Store) Open(ctx context.Context, id int64) (*model.Unit, error) {
	u, err := s.api.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("загрузка подразделения %d: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = u
	return u.Clone(), nil
}

// Current возвращает открытое подразделение или nil.
func (s *Store) Current() *model.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Create создаёт подразделение и добавляет его в начало набора и результата.
func (s *Store) Create(ctx context.Context, fields model.UnitFields) (*model.Unit, error) {
	u, err := s.api.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("создание подразделения: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = prepend(s.all, u)
	s.result = prepend(s.result, u)
	return u.Clone(), nil
}

// Update заменяет подразделение на месте в наборе и результате.
func (s *Store) Update(ctx context.Context, id int64, fields model.UnitFields) (*model.Unit, error) {
	u, err := s.api.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("обновление подразделения %d: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	replace(s.all, u)
	replace(s.result, u)
	if s.current != nil && s.current.ID == u.ID {
		s.current = u
	}
	return u.Clone(), nil
}

// Delete удаляет подразделение из набора и результата.
// Возвращает сообщение сервера.
func (s *Store) Delete(ctx context.Context, id int64) (string, error) {
	msg, err := s.api.Delete(ctx, id)
	if err != nil {
		return "", fmt.Errorf("удаление подразделения %d: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = remove(s.all, id)
	s.result = remove(s.result, id)
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	return msg, nil
}

// --- Вспомогательные функции ---

func prepend(units []*model.Unit, u *model.Unit) []*model.Unit {
	out := make([]*model.Unit, 0, len(units)+1)
	out = append(out, u)
	return append(out, units...)
}

func replace(units []*model.Unit, u *model.Unit) {
	for i := range units {
		if units[i].ID == u.ID {
			units[i] = u
		}
	}
}

func remove(units []*model.Unit, id int64) []*model.Unit {
	out := make([]*model.Unit, 0, len(units))
	for _, u := range units {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}

func cloneUnits(units []*model.Unit) []*model.Unit {
	out := make([]*model.Unit, len(units))
	for i, u := range units {
		out[i] = u.Clone()
	}
	return out
}
