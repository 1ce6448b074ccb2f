// units.go — сервис подразделений.
// Координирует repository, LRU-кэш и Prometheus-метрики; валидирует
// и нормализует поля перед записью.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
	"github.com/bigkaa/unit-tracker/internal/repository"
)

// Prometheus-метрики сервиса.
var (
	unitOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ut_unit_operations_total",
		Help: "Количество операций над подразделениями.",
	}, []string{"operation", "result"})
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ut_search_duration_seconds",
		Help:    "Длительность поисковых запросов.",
		Buckets: prometheus.DefBuckets,
	})
)

// MaxSearchResults — верхняя граница размера результата поиска.
const MaxSearchResults = 20

// UnitService — сервис CRUD, поиска и агрегации подразделений.
type UnitService struct {
	repo        repository.UnitRepository
	cache       *CacheService
	searchLimit int
	logger      *slog.Logger
}

// NewUnitService создаёт сервис подразделений.
// searchLimit вне 1..MaxSearchResults заменяется на MaxSearchResults.
func NewUnitService(
	repo repository.UnitRepository,
	cache *CacheService,
	searchLimit int,
	logger *slog.Logger,
) *UnitService {
	if searchLimit <= 0 || searchLimit > MaxSearchResults {
		searchLimit = MaxSearchResults
	}
	return &UnitService{
		repo:        repo,
		cache:       cache,
		searchLimit: searchLimit,
		logger:      logger.With(slog.String("component", "unit_service")),
	}
}

// List возвращает все подразделения, новые первыми.
func (s *UnitService) List(ctx context.Context) ([]*model.Unit, error) {
	units, err := s.repo.List(ctx)
	observe("list", err)
	if err != nil {
		return nil, fmt.Errorf("получение списка подразделений: %w", err)
	}
	return units, nil
}

// Get возвращает подразделение по id.
// Сначала проверяет кэш, при промахе — хранилище. Прочитанное кэшируется,
// если за время чтения не было параллельного Update или Delete.
func (s *UnitService) Get(ctx context.Context, id int64) (*model.Unit, error) {
	if u, ok := s.cache.Get(id); ok {
		return u, nil
	}

	gen := s.cache.Generation()
	u, err := s.repo.GetByID(ctx, id)
	observe("get", err)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение подразделения: %w", err)
	}

	s.cache.Fill(u, gen)
	return u, nil
}

// Create валидирует поля, применяет значения по умолчанию и сохраняет подразделение.
func (s *UnitService) Create(ctx context.Context, fields model.UnitFields) (*model.Unit, error) {
	normalized, err := Normalize(fields)
	if err != nil {
		observe("create", err)
		return nil, err
	}

	if normalized.SendedToLegend == nil {
		// DEFAULT 0 столбца; в Update пропуск означает NULL
		normalized.SendedToLegend = model.IntPtr(0)
	}

	u, err := s.repo.Create(ctx, normalized)
	observe("create", err)
	if err != nil {
		return nil, fmt.Errorf("создание подразделения: %w", err)
	}

	s.logger.Info("Подразделение создано",
		slog.Int64("id", u.ID),
		slog.String("mil_unit", u.MilUnit),
		slog.String("status", u.Status),
	)
	return u, nil
}

// Update полностью заменяет поля подразделения.
// Незаданные необязательные поля сохраняются как NULL.
func (s *UnitService) Update(ctx context.Context, id int64, fields model.UnitFields) (*model.Unit, error) {
	normalized, err := Normalize(fields)
	if err != nil {
		observe("update", err)
		return nil, err
	}

	u, err := s.repo.Update(ctx, id, normalized)
	observe("update", err)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.cache.Delete(id)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление подразделения: %w", err)
	}

	s.cache.Set(u)
	s.logger.Info("Подразделение обновлено",
		slog.Int64("id", u.ID),
		slog.String("status", u.Status),
	)
	return u, nil
}

// Delete удаляет подразделение. Удаление отсутствующего id — не ошибка.
func (s *UnitService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	observe("delete", err)
	if err != nil {
		return false, fmt.Errorf("удаление подразделения: %w", err)
	}

	s.cache.Delete(id)
	if deleted {
		s.logger.Info("Подразделение удалено", slog.Int64("id", id))
	}
	return deleted, nil
}

// Search — поиск подстроки без учёта регистра, не более searchLimit записей.
// Пустой (после trim) запрос возвращает пустой результат без обращения к хранилищу.
func (s *UnitService) Search(ctx context.Context, term string) ([]*model.Unit, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*model.Unit{}, nil
	}

	start := time.Now()
	units, err := s.repo.Search(ctx, term, s.searchLimit)
	observe("search", err)
	if err != nil {
		return nil, fmt.Errorf("поиск подразделений: %w", err)
	}
	duration := time.Since(start)
	searchDuration.Observe(duration.Seconds())

	s.logger.Debug("Поиск выполнен",
		slog.String("term", term),
		slog.Int("returned", len(units)),
		slog.Duration("duration", duration),
	)
	return units, nil
}

// Stats возвращает количество подразделений по каждому присутствующему статусу.
// Статусы без подразделений не включаются; дополнение нулями — на стороне клиента.
func (s *UnitService) Stats(ctx context.Context) ([]model.StatusCount, error) {
	counts, err := s.repo.CountByStatus(ctx)
	observe("stats", err)
	if err != nil {
		return nil, fmt.Errorf("подсчёт по статусам: %w", err)
	}
	return counts, nil
}

// Normalize проверяет поля подразделения. Значения сохраняются как
// переданы: пробелы не обрезаются, пустые строки не заменяются на NULL.
// mil_unit обязателен (проверка после trim), пустой статус заменяется
// первым этапом workflow.
func Normalize(f model.UnitFields) (model.UnitFields, error) {
	out := f.Clone()

	if strings.TrimSpace(out.MilUnit) == "" {
		return out, &FieldError{Field: model.FieldMilUnit, Reason: ReasonRequired}
	}

	if strings.TrimSpace(out.Status) == "" {
		out.Status = string(workflow.First())
	} else if !workflow.IsValid(out.Status) {
		return out, &FieldError{Field: model.FieldStatus, Reason: ReasonInvalidStatus, Value: out.Status}
	}

	if v := out.SendedToLegend; v != nil && *v != 0 && *v != 1 {
		return out, &FieldError{Field: model.FieldSendedToLegend, Reason: ReasonInvalidFlag, Value: fmt.Sprint(*v)}
	}

	if d := out.DateWhenFinished; d != nil && *d != "" {
		if _, ok := model.ParseDate(*d); !ok {
			return out, &FieldError{Field: model.FieldDateWhenFinished, Reason: ReasonInvalidDate, Value: *d}
		}
	}

	return out, nil
}

// observe учитывает результат операции в метриках.
func observe(operation string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		result = "invalid"
	case errors.Is(err, repository.ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	unitOperationsTotal.WithLabelValues(operation, result).Inc()
}
