// units.go — обработчики /api/units, /api/stats, /api/statuses.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/unit-tracker/internal/api/errors"
	"github.com/bigkaa/unit-tracker/internal/domain/model"
	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
	"github.com/bigkaa/unit-tracker/internal/i18n"
	"github.com/bigkaa/unit-tracker/internal/service"
)

// messageResponse — ответ с текстовым сообщением.
type messageResponse struct {
	Message string `json:"message"`
}

// statusInfo — этап workflow с подписью на языке запроса.
type statusInfo struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Terminal bool   `json:"terminal"`
	Success  bool   `json:"success"`
}

// ListUnits — GET /api/units. Все подразделения, новые первыми.
func (h *APIHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.units.List(r.Context())
	if err != nil {
		h.internalError(w, r, "Ошибка получения списка подразделений", err)
		return
	}
	if units == nil {
		units = []*model.Unit{}
	}
	writeJSON(w, http.StatusOK, units)
}

// SearchUnits — GET /api/units/search/{term}. Не более 20 записей.
func (h *APIHandler) SearchUnits(w http.ResponseWriter, r *http.Request, term string) {
	units, err := h.units.Search(r.Context(), term)
	if err != nil {
		h.internalError(w, r, "Ошибка поиска подразделений", err)
		return
	}
	if units == nil {
		units = []*model.Unit{}
	}
	writeJSON(w, http.StatusOK, units)
}

// GetUnit — GET /api/units/{id}.
func (h *APIHandler) GetUnit(w http.ResponseWriter, r *http.Request, id int64) {
	u, err := h.units.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, "Ошибка получения подразделения", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// CreateUnit — POST /api/units. Возвращает 201 и созданную запись.
func (h *APIHandler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	u, err := h.units.Create(r.Context(), fields)
	if err != nil {
		h.serviceError(w, r, "Ошибка создания подразделения", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// UpdateUnit — PUT /api/units/{id}. Полная замена полей.
func (h *APIHandler) UpdateUnit(w http.ResponseWriter, r *http.Request, id int64) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	u, err := h.units.Update(r.Context(), id, fields)
	if err != nil {
		h.serviceError(w, r, "Ошибка обновления подразделения", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteUnit — DELETE /api/units/{id}.
// Удаление отсутствующего id также возвращает 200.
func (h *APIHandler) DeleteUnit(w http.ResponseWriter, r *http.Request, id int64) {
	if _, err := h.units.Delete(r.Context(), id); err != nil {
		h.internalError(w, r, "Ошибка удаления подразделения", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: i18n.T(r.Context(), "api.unit_deleted")})
}

// GetStats — GET /api/stats. Только присутствующие статусы.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.units.Stats(r.Context())
	if err != nil {
		h.internalError(w, r, "Ошибка подсчёта статистики", err)
		return
	}
	if counts == nil {
		counts = []model.StatusCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

// ListStatuses — GET /api/statuses. Этапы workflow по порядку с подписями.
func (h *APIHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	all := workflow.All()
	resp := make([]statusInfo, 0, len(all))
	for _, s := range all {
		resp = append(resp, statusInfo{
			Value:    string(s),
			Label:    i18n.StatusLabel(lang, s),
			Terminal: s.IsTerminal(),
			Success:  s.IsSuccess(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeFields читает тело запроса. При ошибке пишет 400 и возвращает false.
func decodeFields(w http.ResponseWriter, r *http.Request) (model.UnitFields, bool) {
	var fields model.UnitFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		apierrors.ValidationError(w, i18n.Tf(r.Context(), "api.invalid_json", err.Error()))
		return fields, false
	}
	return fields, true
}

// serviceError отображает ошибку сервиса в HTTP-ответ.
func (h *APIHandler) serviceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		apierrors.ValidationError(w, validationMessage(r, fe))
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, i18n.T(r.Context(), "api.unit_not_found"))
	default:
		h.internalError(w, r, msg, err)
	}
}

// internalError логирует ошибку и пишет 500 без подробностей.
func (h *APIHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	apierrors.InternalError(w, i18n.T(r.Context(), "api.internal"))
}

// validationMessage — текст ошибки валидации на языке запроса.
func validationMessage(r *http.Request, fe *service.FieldError) string {
	ctx := r.Context()
	label := i18n.FieldLabel(i18n.LangFromContext(ctx), fe.Field)
	key := "validation." + fe.Reason
	if fe.Reason == service.ReasonRequired {
		return i18n.Tf(ctx, key, label)
	}
	return i18n.Tf(ctx, key, label, fe.Value)
}
