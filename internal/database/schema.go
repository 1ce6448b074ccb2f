// schema.go — инициализация и эволюция схемы таблицы units.
//
// Initialize идемпотентна:
//  1. базовые миграции создают таблицу, если её нет;
//  2. недостающие столбцы прежних версий добавляются со значением по умолчанию;
//  3. если набор статусов в CHECK-ограничении отличается от текущего workflow
//     (или в таблице есть статусы вне workflow), таблица пересоздаётся в одной
//     транзакции с переводом старых статусов через workflow.LegacyLabels.
//
// Ошибка любого шага фатальна: сервер не стартует с некорректной схемой.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/bigkaa/unit-tracker/internal/config"
	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
)

// unitColumns — столбцы таблицы units в порядке объявления.
var unitColumns = []string{
	"id", "name_of_unit", "brigade_or_higher", "mil_unit", "description", "email",
	"status", "date_when_finished", "computer_name", "ip_address", "sended_to_legend",
}

// addableColumns — столбцы, которые могли отсутствовать в прежних версиях схемы.
// Список только пополняется: столбцы никогда не удаляются.
var addableColumns = []struct {
	name string
	ddl  string
}{
	{"name_of_unit", "TEXT"},
	{"brigade_or_higher", "TEXT"},
	{"description", "TEXT"},
	{"email", "TEXT"},
	{"date_when_finished", "TEXT"},
	{"computer_name", "TEXT"},
	{"ip_address", "TEXT"},
	{"sended_to_legend", "INTEGER DEFAULT 0"},
}

var (
	// checkRe — CHECK(status IN (...)) в DDL SQLite.
	checkRe = regexp.MustCompile(`(?is)CHECK\s*\(\s*"?status"?\s+IN\s*\((.*?)\)\s*\)`)
	// literalRe — строковый литерал SQL с экранированием ''.
	literalRe = regexp.MustCompile(`'((?:[^']|'')*)'`)
)

// EvolveResult — итог эволюции схемы.
type EvolveResult struct {
	// AddedColumns — добавленные столбцы
	AddedColumns []string
	// StatusRebuilt — ограничение статуса было заменено
	StatusRebuilt bool
	// Remapped — число строк, статус которых переведён
	Remapped int64
}

// Initialize применяет миграции и приводит существующую таблицу к текущей схеме.
func Initialize(ctx context.Context, cfg *config.Config, db *DB, logger *slog.Logger) error {
	if err := Migrate(cfg, logger); err != nil {
		return err
	}

	res, err := Evolve(ctx, db)
	if err != nil {
		return fmt.Errorf("ошибка эволюции схемы: %w", err)
	}

	for _, c := range res.AddedColumns {
		logger.Info("Добавлен столбец units", slog.String("column", c))
	}
	if res.StatusRebuilt {
		logger.Info("Набор статусов обновлён",
			slog.Int64("remapped", res.Remapped),
			slog.Any("statuses", workflow.Strings()),
		)
	}
	return nil
}

// Evolve выполняет шаги 2–3 для уже созданной таблицы.
func Evolve(ctx context.Context, db *DB) (*EvolveResult, error) {
	if db.Driver == config.DriverPostgres {
		return evolvePostgres(ctx, db.Pool)
	}
	return evolveSQLite(ctx, db.SQL)
}

// --- SQLite ---

func evolveSQLite(ctx context.Context, db *sql.DB) (*EvolveResult, error) {
	res := &EvolveResult{}

	added, err := ensureColumnsSQLite(ctx, db)
	if err != nil {
		return nil, err
	}
	res.AddedColumns = added

	var tableSQL string
	err = db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'units'`).Scan(&tableSQL)
	if err != nil {
		return nil, fmt.Errorf("чтение DDL units: %w", err)
	}

	stray, err := countStrayStatuses(ctx, db, questionMarks)
	if err != nil {
		return nil, err
	}

	if sameLabels(parseCheckLabels(tableSQL), workflow.Strings()) && stray == 0 {
		return res, nil
	}

	if err := rebuildSQLite(ctx, db); err != nil {
		return nil, err
	}
	res.StatusRebuilt = true
	res.Remapped = stray
	return res, nil
}

// ensureColumnsSQLite добавляет отсутствующие столбцы через ALTER TABLE ADD COLUMN.
func ensureColumnsSQLite(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(units)`)
	if err != nil {
		return nil, fmt.Errorf("чтение столбцов units: %w", err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return nil, fmt.Errorf("сканирование столбца units: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("итерация столбцов units: %w", err)
	}
	rows.Close()

	var added []string
	for _, c := range addableColumns {
		if existing[c.name] {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE units ADD COLUMN %s %s`, c.name, c.ddl)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("добавление столбца %s: %w", c.name, err)
		}
		added = append(added, c.name)
	}
	return added, nil
}

// rebuildSQLite пересоздаёт таблицу units с текущим CHECK-ограничением.
// Все шаги выполняются в одной транзакции: при ошибке старая таблица не меняется.
func rebuildSQLite(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // откат после коммита — no-op

	// Счётчик AUTOINCREMENT переносим вручную, чтобы новые id
	// не повторяли id ранее удалённых записей.
	var seq sql.NullInt64
	var hasSeq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'`).Scan(&hasSeq); err != nil {
		return fmt.Errorf("проверка sqlite_sequence: %w", err)
	}
	if hasSeq > 0 {
		err := tx.QueryRowContext(ctx, `SELECT seq FROM sqlite_sequence WHERE name = 'units'`).Scan(&seq)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("чтение sqlite_sequence: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, sqliteTableDDL("units_new")); err != nil {
		return fmt.Errorf("создание units_new: %w", err)
	}

	caseExpr, args := statusRemapCase(questionMarks)
	cols := strings.Join(unitColumns, ", ")
	selectCols := strings.Replace(cols, "status", caseExpr, 1)
	copyStmt := fmt.Sprintf(`INSERT INTO units_new (%s) SELECT %s FROM units`, cols, selectCols)
	if _, err := tx.ExecContext(ctx, copyStmt, args...); err != nil {
		return fmt.Errorf("копирование в units_new: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE units`); err != nil {
		return fmt.Errorf("удаление старой units: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE units_new RENAME TO units`); err != nil {
		return fmt.Errorf("переименование units_new: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_units_status ON units(status)`); err != nil {
		return fmt.Errorf("создание индекса статуса: %w", err)
	}

	if seq.Valid {
		res, err := tx.ExecContext(ctx,
			`UPDATE sqlite_sequence SET seq = ? WHERE name = 'units' AND seq < ?`, seq.Int64, seq.Int64)
		if err != nil {
			return fmt.Errorf("восстановление sqlite_sequence: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sqlite_sequence (name, seq) SELECT 'units', ? WHERE NOT EXISTS (SELECT 1 FROM sqlite_sequence WHERE name = 'units')`,
				seq.Int64); err != nil {
				return fmt.Errorf("восстановление sqlite_sequence: %w", err)
			}
		}
	}

	return tx.Commit()
}

// sqliteTableDDL возвращает CREATE TABLE с текущим набором статусов.
func sqliteTableDDL(name string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name_of_unit TEXT,
    brigade_or_higher TEXT,
    mil_unit TEXT NOT NULL,
    description TEXT,
    email TEXT,
    status TEXT CHECK(status IN (%s)) DEFAULT %s,
    date_when_finished TEXT,
    computer_name TEXT,
    ip_address TEXT,
    sended_to_legend INTEGER DEFAULT 0
)`, name, statusLiterals(), quoteLiteral(string(workflow.First())))
}

// --- Общие функции ---

// placeholderFunc возвращает n-й (с 1) параметр запроса для диалекта.
type placeholderFunc func(n int) string

func questionMarks(int) string { return "?" }

func dollarN(n int) string { return fmt.Sprintf("$%d", n) }

// queryRower — общий интерфейс *sql.DB и *sql.Tx для одиночных запросов.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// strayStatusQuery строит запрос подсчёта строк со статусом вне workflow.
func strayStatusQuery(ph placeholderFunc) (string, []any) {
	statuses := workflow.Strings()
	marks := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		marks[i] = ph(i + 1)
		args[i] = s
	}
	q := fmt.Sprintf(`SELECT COUNT(*) FROM units WHERE status IS NULL OR status NOT IN (%s)`,
		strings.Join(marks, ", "))
	return q, args
}

func countStrayStatuses(ctx context.Context, db queryRower, ph placeholderFunc) (int64, error) {
	q, args := strayStatusQuery(ph)
	var n int64
	if err := db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("подсчёт статусов вне workflow: %w", err)
	}
	return n, nil
}

// statusRemapCase строит CASE-выражение перевода статусов:
// текущие статусы остаются, старые переводятся по LegacyLabels,
// остальные (и NULL) получают первый этап workflow.
func statusRemapCase(ph placeholderFunc) (string, []any) {
	var b strings.Builder
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return ph(len(args))
	}

	b.WriteString("CASE")

	current := workflow.Strings()
	marks := make([]string, len(current))
	for i, s := range current {
		marks[i] = next(s)
	}
	fmt.Fprintf(&b, " WHEN status IN (%s) THEN status", strings.Join(marks, ", "))

	// Сортировка ключей — детерминированный текст запроса.
	legacy := make([]string, 0, len(workflow.LegacyLabels))
	for old := range workflow.LegacyLabels {
		legacy = append(legacy, old)
	}
	sort.Strings(legacy)
	for _, old := range legacy {
		fmt.Fprintf(&b, " WHEN status = %s THEN %s", next(old), next(string(workflow.LegacyLabels[old])))
	}

	fmt.Fprintf(&b, " ELSE %s END", next(string(workflow.First())))
	return b.String(), args
}

// parseCheckLabels извлекает статусы из CHECK(status IN (...)) в DDL.
// Пустой результат означает отсутствие ограничения.
func parseCheckLabels(ddl string) []string {
	m := checkRe.FindStringSubmatch(ddl)
	if m == nil {
		return nil
	}
	return parseLiterals(m[1])
}

// parseLiterals извлекает все строковые литералы SQL из текста.
func parseLiterals(s string) []string {
	var out []string
	for _, m := range literalRe.FindAllStringSubmatch(s, -1) {
		out = append(out, strings.ReplaceAll(m[1], "''", "'"))
	}
	return out
}

// sameLabels сравнивает наборы статусов без учёта порядка.
func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}

// statusLiterals — текущие статусы как список SQL-литералов.
func statusLiterals() string {
	statuses := workflow.Strings()
	quoted := make([]string, len(statuses))
	for i, s := range statuses {
		quoted[i] = quoteLiteral(s)
	}
	return strings.Join(quoted, ", ")
}

// quoteLiteral экранирует строку как SQL-литерал.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
