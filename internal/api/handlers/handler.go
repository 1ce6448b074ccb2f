// Пакет handlers — HTTP-обработчики API unit-tracker. APIHandler реализует
// ServerInterface: подразделения через service.UnitService, служебные
// endpoints через HealthHandler.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bigkaa/unit-tracker/internal/service"
)

// APIHandler — реализация ServerInterface.
type APIHandler struct {
	*HealthHandler

	units  *service.UnitService
	spec   []byte
	logger *slog.Logger
}

var _ ServerInterface = (*APIHandler)(nil)

// NewAPIHandler собирает обработчик. spec отдаётся как /openapi.yaml.
func NewAPIHandler(health *HealthHandler, units *service.UnitService, spec []byte, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		HealthHandler: health,
		units:         units,
		spec:          spec,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// GetOpenAPISpec — GET /openapi.yaml.
func (h *APIHandler) GetOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(h.spec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Ошибка записи ответа", slog.String("error", err.Error()))
	}
}
