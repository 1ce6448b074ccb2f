// routes.go — интерфейс обработчиков API и привязка маршрутов к chi.Router.
// Параметры пути разбираются через oapi-codegen runtime, ошибки
// разбора возвращаются в формате VALIDATION_ERROR.
package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/unit-tracker/internal/api/errors"
	"github.com/bigkaa/unit-tracker/internal/i18n"
)

// ServerInterface — операции HTTP API unit-tracker.
type ServerInterface interface {
	// (GET /api/units)
	ListUnits(w http.ResponseWriter, r *http.Request)
	// (POST /api/units)
	CreateUnit(w http.ResponseWriter, r *http.Request)
	// (GET /api/units/search/{term})
	SearchUnits(w http.ResponseWriter, r *http.Request, term string)
	// (GET /api/units/{id})
	GetUnit(w http.ResponseWriter, r *http.Request, id int64)
	// (PUT /api/units/{id})
	UpdateUnit(w http.ResponseWriter, r *http.Request, id int64)
	// (DELETE /api/units/{id})
	DeleteUnit(w http.ResponseWriter, r *http.Request, id int64)
	// (GET /api/stats)
	GetStats(w http.ResponseWriter, r *http.Request)
	// (GET /api/statuses)
	ListStatuses(w http.ResponseWriter, r *http.Request)
	// (GET /health/live)
	HealthLive(w http.ResponseWriter, r *http.Request)
	// (GET /health/ready)
	HealthReady(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	GetMetrics(w http.ResponseWriter, r *http.Request)
	// (GET /openapi.yaml)
	GetOpenAPISpec(w http.ResponseWriter, r *http.Request)
}

// HandlerFromMux регистрирует все маршруты ServerInterface в r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	r.Get("/api/units", si.ListUnits)
	r.Post("/api/units", si.CreateUnit)
	r.Get("/api/units/search/{term}", withTerm(si.SearchUnits))
	r.Get("/api/units/{id}", withID(si.GetUnit))
	r.Put("/api/units/{id}", withID(si.UpdateUnit))
	r.Delete("/api/units/{id}", withID(si.DeleteUnit))
	r.Get("/api/stats", si.GetStats)
	r.Get("/api/statuses", si.ListStatuses)

	r.Get("/health/live", si.HealthLive)
	r.Get("/health/ready", si.HealthReady)
	r.Get("/metrics", si.GetMetrics)
	r.Get("/openapi.yaml", si.GetOpenAPISpec)
	return r
}

// withID разбирает целочисленный параметр {id}.
// Нецелое значение — 400 без вызова обработчика.
func withID(next func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id int64
		raw := chi.URLParam(r, "id")
		err := runtime.BindStyledParameterWithOptions("simple", "id", raw, &id,
			runtime.BindStyledParameterOptions{
				ParamLocation: runtime.ParamLocationPath,
				Explode:       false,
				Required:      true,
			})
		if err != nil {
			apierrors.ValidationError(w, i18n.Tf(r.Context(), "api.invalid_id", raw))
			return
		}
		next(w, r, id)
	}
}

// withTerm извлекает параметр {term}.
// chi сопоставляет маршрут по RawPath, если он задан, и тогда
// значение параметра ещё закодировано.
func withTerm(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := chi.URLParam(r, "term")
		if r.URL.RawPath != "" {
			decoded, err := url.PathUnescape(term)
			if err != nil {
				apierrors.ValidationError(w, fmt.Sprintf("некорректный параметр term: %v", err))
				return
			}
			term = decoded
		}
		next(w, r, term)
	}
}
