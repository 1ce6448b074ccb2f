// Пакет config — загрузка и валидация конфигурации unit-tracker
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Драйверы хранилища.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config содержит все параметры конфигурации сервера.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Язык подписей статусов по умолчанию (en, uk)
	DefaultLang string
	// Таймаут чтения HTTP-запроса
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-ответа
	HTTPWriteTimeout time.Duration
	// Таймаут простоя keep-alive соединения
	HTTPIdleTimeout time.Duration
	// Проверять запросы по OpenAPI контракту
	ValidateRequests bool

	// --- Хранилище ---

	// Драйвер: sqlite (по умолчанию) или postgres
	DBDriver string
	// Путь к файлу SQLite
	DBPath string
	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Запросы ---

	// Максимум результатов поиска
	SearchLimit int
	// Размер LRU-кэша подразделений
	CacheSize int
	// TTL записи в кэше
	CacheTTL time.Duration

	// --- JWT (опционально) ---

	// Включить проверку JWT на /api
	AuthEnabled bool
	// URL JWKS endpoint
	JWTJWKSURL string
	// Ожидаемый issuer JWT (пустой — не проверяется)
	JWTIssuer string
	// Допустимое отклонение времени при проверке exp/nbf
	JWTLeeway time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Группы IdP, дающие роль admin
	RoleAdminGroups []string
	// Группы IdP, дающие роль readonly
	RoleReadonlyGroups []string

	// --- topologymetrics ---

	// Группа в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// значения и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// UT_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("UT_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("UT_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("UT_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// UT_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("UT_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("UT_LOG_LEVEL: %w", err)
	}

	// UT_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("UT_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("UT_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// UT_DEFAULT_LANG — язык подписей (по умолчанию en)
	cfg.DefaultLang = getEnvDefault("UT_DEFAULT_LANG", "en")
	if cfg.DefaultLang != "en" && cfg.DefaultLang != "uk" {
		return nil, fmt.Errorf("UT_DEFAULT_LANG: недопустимое значение %q, допустимые: en, uk", cfg.DefaultLang)
	}

	// UT_HTTP_* — таймауты HTTP-сервера
	cfg.HTTPReadTimeout, err = getEnvDuration("UT_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UT_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("UT_HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UT_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("UT_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UT_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// UT_VALIDATE_REQUESTS — проверка запросов по OpenAPI (по умолчанию включена)
	cfg.ValidateRequests, err = getEnvBool("UT_VALIDATE_REQUESTS", true)
	if err != nil {
		return nil, fmt.Errorf("UT_VALIDATE_REQUESTS: %w", err)
	}

	// --- Хранилище ---

	// UT_DB_DRIVER — sqlite или postgres (по умолчанию sqlite)
	cfg.DBDriver = getEnvDefault("UT_DB_DRIVER", DriverSQLite)
	switch cfg.DBDriver {
	case DriverSQLite:
		// UT_DB_PATH — путь к файлу SQLite
		cfg.DBPath = getEnvDefault("UT_DB_PATH", "unit-tracker.db")
	case DriverPostgres:
		if err := loadPostgres(cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("UT_DB_DRIVER: недопустимое значение %q, допустимые: sqlite, postgres", cfg.DBDriver)
	}

	// --- Запросы ---

	// UT_SEARCH_LIMIT — максимум результатов поиска (по умолчанию 20)
	cfg.SearchLimit, err = getEnvInt("UT_SEARCH_LIMIT", 20)
	if err != nil {
		return nil, fmt.Errorf("UT_SEARCH_LIMIT: %w", err)
	}
	if cfg.SearchLimit < 1 || cfg.SearchLimit > 20 {
		return nil, fmt.Errorf("UT_SEARCH_LIMIT: значение %d вне допустимого диапазона 1-20", cfg.SearchLimit)
	}

	// UT_CACHE_SIZE — размер кэша (по умолчанию 1000)
	cfg.CacheSize, err = getEnvInt("UT_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("UT_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize < 1 {
		return nil, fmt.Errorf("UT_CACHE_SIZE: значение %d должно быть положительным", cfg.CacheSize)
	}

	// UT_CACHE_TTL — TTL кэша (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("UT_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("UT_CACHE_TTL: %w", err)
	}

	// --- JWT ---

	// UT_AUTH_ENABLED — проверка JWT (по умолчанию выключена)
	cfg.AuthEnabled, err = getEnvBool("UT_AUTH_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("UT_AUTH_ENABLED: %w", err)
	}

	cfg.JWTJWKSURL = getEnvDefault("UT_JWT_JWKS_URL", "")
	if cfg.AuthEnabled && cfg.JWTJWKSURL == "" {
		return nil, fmt.Errorf("UT_JWT_JWKS_URL: обязательна при UT_AUTH_ENABLED=true")
	}
	cfg.JWTIssuer = getEnvDefault("UT_JWT_ISSUER", "")

	cfg.JWTLeeway, err = getEnvDuration("UT_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UT_JWT_LEEWAY: %w", err)
	}

	cfg.JWKSRefreshInterval, err = getEnvDuration("UT_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("UT_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// UT_ROLE_ADMIN_GROUPS / UT_ROLE_READONLY_GROUPS — маппинг групп в роли
	cfg.RoleAdminGroups = parseCSV(getEnvDefault("UT_ROLE_ADMIN_GROUPS", "unit-tracker-admins"))
	cfg.RoleReadonlyGroups = parseCSV(getEnvDefault("UT_ROLE_READONLY_GROUPS", "unit-tracker-viewers"))

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("UT_DEPHEALTH_GROUP", "unit-tracker")
	cfg.DephealthCheckInterval, err = getEnvDuration("UT_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UT_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// UT_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("UT_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UT_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadPostgres читает параметры PostgreSQL (обязательны для driver=postgres).
func loadPostgres(cfg *Config) error {
	var err error

	cfg.DBHost, err = getEnvRequired("UT_DB_HOST")
	if err != nil {
		return err
	}

	cfg.DBPort, err = getEnvInt("UT_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("UT_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("UT_DB_NAME")
	if err != nil {
		return err
	}

	cfg.DBUser, err = getEnvRequired("UT_DB_USER")
	if err != nil {
		return err
	}

	cfg.DBPassword, err = getEnvRequired("UT_DB_PASSWORD")
	if err != nil {
		return err
	}

	cfg.DBSSLMode = getEnvDefault("UT_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("UT_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// MigrationURL возвращает URL базы данных в формате golang-migrate.
func (c *Config) MigrationURL() string {
	if c.DBDriver == DriverPostgres {
		return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s",
			url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword),
			c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
	}
	return "sqlite3://" + c.DBPath
}

// PostgresURL возвращает URL PostgreSQL для лейблов topologymetrics.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
