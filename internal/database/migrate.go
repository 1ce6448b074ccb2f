// migrate.go — применение SQL-миграций из embedded FS через golang-migrate.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/bigkaa/unit-tracker/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate применяет базовые миграции для выбранного драйвера.
// Миграции создают таблицу units, если её нет; эволюцию существующих
// таблиц выполняет Initialize.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	dir := "migrations/sqlite"
	if cfg.DBDriver == config.DriverPostgres {
		dir = "migrations/postgres"
	}

	// Создаём источник миграций из embedded FS
	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.MigrationURL())
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()
	m.Log = &migrationLogger{logger: logger.With(slog.String("component", "migrate"))}

	// Применяем все миграции
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Миграции применены",
		slog.String("driver", cfg.DBDriver),
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	return nil
}

// migrationLogger — адаптер slog для migrate.Logger.
type migrationLogger struct {
	logger *slog.Logger
}

// Printf выводит сообщение golang-migrate на уровне debug.
func (l *migrationLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Verbose включает подробный вывод golang-migrate.
func (l *migrationLogger) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}
