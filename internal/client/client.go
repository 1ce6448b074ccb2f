// Пакет client — HTTP-клиент API unit-tracker.
// Используется CLI unitctl и хранилищем состояния dashboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/bigkaa/unit-tracker/internal/api/errors"
	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

// ErrNotFound — сервер ответил 404.
var ErrNotFound = errors.New("подразделение не найдено")

// APIError — ответ сервера с кодом не 2xx.
type APIError struct {
	// StatusCode — HTTP статус
	StatusCode int
	// Code — машиночитаемый код из тела ошибки (может быть пустым)
	Code string
	// Message — сообщение сервера или тело ответа
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API вернул %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API вернул %d: %s", e.StatusCode, e.Message)
}

// Is позволяет errors.Is(err, ErrNotFound) для ответов 404.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// StatusInfo — этап workflow из GET /api/statuses.
type StatusInfo struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Terminal bool   `json:"terminal"`
	Success  bool   `json:"success"`
}

// Client — HTTP-клиент API unit-tracker.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	lang       string
	logger     *slog.Logger
}

// New создаёт клиент.
// baseURL — адрес сервера (например, http://localhost:8080),
// token — Bearer token (пусто — без авторизации),
// lang — значение Accept-Language (пусто — не передаётся).
func New(baseURL, token, lang string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		lang:       lang,
		logger:     logger.With(slog.String("component", "api_client")),
	}
}

// List — GET /api/units.
func (c *Client) List(ctx context.Context) ([]*model.Unit, error) {
	var units []*model.Unit
	if err := c.do(ctx, http.MethodGet, "/api/units", nil, &units); err != nil {
		return nil, err
	}
	return units, nil
}

// Get — GET /api/units/{id}.
func (c *Client) Get(ctx context.Context, id int64) (*model.Unit, error) {
	var u model.Unit
	if err := c.do(ctx, http.MethodGet, unitPath(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create — POST /api/units.
func (c *Client) Create(ctx context.Context, fields model.UnitFields) (*model.Unit, error) {
	var u model.Unit
	if err := c.do(ctx, http.MethodPost, "/api/units", fields, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update — PUT /api/units/{id}. Полная замена полей.
func (c *Client) Update(ctx context.Context, id int64, fields model.UnitFields) (*model.Unit, error) {
	var u model.Unit
	if err := c.do(ctx, http.MethodPut, unitPath(id), fields, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete — DELETE /api/units/{id}. Возвращает сообщение сервера.
func (c *Client) Delete(ctx context.Context, id int64) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, unitPath(id), nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Search — GET /api/units/search/{term}.
func (c *Client) Search(ctx context.Context, term string) ([]*model.Unit, error) {
	var units []*model.Unit
	if err := c.do(ctx, http.MethodGet, "/api/units/search/"+url.PathEscape(term), nil, &units); err != nil {
		return nil, err
	}
	return units, nil
}

// Stats — GET /api/stats.
func (c *Client) Stats(ctx context.Context) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// Statuses — GET /api/statuses.
func (c *Client) Statuses(ctx context.Context) ([]StatusInfo, error) {
	var statuses []StatusInfo
	if err := c.do(ctx, http.MethodGet, "/api/statuses", nil, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func unitPath(id int64) string {
	return "/api/units/" + strconv.FormatInt(id, 10)
}

// do выполняет запрос и декодирует JSON-ответ в out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("кодирование тела %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return fmt.Errorf("запрос %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Ответ API",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError разбирает тело ошибки; нестандартное тело сохраняется как есть.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body apierrors.ErrorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Code != "" {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
