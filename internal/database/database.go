// Пакет database — подключение к хранилищу (SQLite или PostgreSQL),
// применение миграций (golang-migrate), эволюция схемы и проверка готовности.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"

	"github.com/bigkaa/unit-tracker/internal/config"
)

// SQLiteDriverName — драйвер database/sql с функцией ulower.
// Встроенная lower() в SQLite складывает регистр только для ASCII,
// ulower применяет strings.ToLower (кириллица и т.д.).
const SQLiteDriverName = "sqlite3_units"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ulower", strings.ToLower, true)
		},
	})
}

// DB — открытое хранилище.
// Для SQLite заполнен только SQL. Для PostgreSQL основной доступ идёт через Pool,
// а SQL — адаптер пула (stdlib.OpenDBFromPool) для topologymetrics.
type DB struct {
	// Driver — config.DriverSQLite или config.DriverPostgres
	Driver string
	// SQL — соединение database/sql
	SQL *sql.DB
	// Pool — пул pgx (только PostgreSQL)
	Pool *pgxpool.Pool
}

// Connect открывает хранилище согласно конфигурации и проверяет доступность.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DB, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return connectPostgres(ctx, cfg, logger)
	default:
		return connectSQLite(ctx, cfg.DBPath, logger)
	}
}

// connectSQLite открывает файл SQLite.
// Пул ограничен одним соединением: SQLite сериализует запись, и так
// исключаются ошибки "database is locked" между соединениями.
func connectSQLite(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	db, err := sql.Open(SQLiteDriverName, path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия SQLite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к SQLite: %w", err)
	}

	logger.Info("Подключение к SQLite установлено", slog.String("path", path))

	return &DB{Driver: config.DriverSQLite, SQL: db}, nil
}

// connectPostgres создаёт пул подключений к PostgreSQL.
func connectPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}

	// Проверяем подключение
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
	}

	logger.Info("Подключение к PostgreSQL установлено",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
	)

	return &DB{
		Driver: config.DriverPostgres,
		SQL:    stdlib.OpenDBFromPool(pool),
		Pool:   pool,
	}, nil
}

// Close закрывает соединения хранилища.
func (d *DB) Close() {
	if d.SQL != nil {
		_ = d.SQL.Close()
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}

// ReadinessChecker — проверка готовности хранилища для health endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	db *DB
}

// NewReadinessChecker создаёт проверку готовности хранилища.
func NewReadinessChecker(db *DB) *ReadinessChecker {
	return &ReadinessChecker{db: db}
}

// CheckReady проверяет подключение к хранилищу через ping.
// Возвращает статус ("ok", "fail") и сообщение.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var err error
	if c.db.Pool != nil {
		err = c.db.Pool.Ping(ctx)
	} else {
		err = c.db.SQL.PingContext(ctx)
	}
	if err != nil {
		return "fail", fmt.Sprintf("%s недоступен: %v", c.db.Driver, err)
	}
	return "ok", "подключение активно"
}
