package database

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/bigkaa/unit-tracker/internal/config"
	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTestSQLite открывает временный файл SQLite и возвращает конфиг и хранилище.
func openTestSQLite(t *testing.T) (*config.Config, *DB) {
	t.Helper()
	cfg := &config.Config{
		DBDriver: config.DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "units.db"),
	}
	db, err := Connect(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(db.Close)
	return cfg, db
}

// exec выполняет SQL и прерывает тест при ошибке.
func exec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// statusesByID возвращает статус каждой записи.
func statusesByID(t *testing.T, db *sql.DB) map[int64]string {
	t.Helper()
	rows, err := db.Query(`SELECT id, status FROM units ORDER BY id`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	out := make(map[int64]string)
	for rows.Next() {
		var id int64
		var st sql.NullString
		if err := rows.Scan(&id, &st); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out[id] = st.String
	}
	return out
}

func TestInitialize_FreshDatabase(t *testing.T) {
	cfg, db := openTestSQLite(t)
	ctx := context.Background()

	if err := Initialize(ctx, cfg, db, testLogger()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	exec(t, db.SQL, `INSERT INTO units (mil_unit) VALUES ('А0998')`)
	var status string
	if err := db.SQL.QueryRow(`SELECT status FROM units`).Scan(&status); err != nil {
		t.Fatalf("select: %v", err)
	}
	if status != string(workflow.First()) {
		t.Errorf("статус по умолчанию = %q, ожидался %q", status, workflow.First())
	}

	// Ограничение отклоняет значения вне workflow
	if _, err := db.SQL.Exec(`INSERT INTO units (mil_unit, status) VALUES ('А1', 'Completed')`); err == nil {
		t.Error("ожидалась ошибка CHECK для статуса вне workflow")
	}

	// Повторная инициализация — no-op
	res, err := Evolve(ctx, db)
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	if res.StatusRebuilt || len(res.AddedColumns) != 0 {
		t.Errorf("повторная эволюция изменила схему: %+v", res)
	}
}

func TestInitialize_LegacyEnglishStatuses(t *testing.T) {
	cfg, db := openTestSQLite(t)
	ctx := context.Background()

	// Таблица первой версии: другой набор статусов, нет части столбцов
	exec(t, db.SQL, `CREATE TABLE units (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name_of_unit TEXT,
		brigade_or_higher TEXT,
		mil_unit TEXT NOT NULL,
		description TEXT,
		email TEXT,
		status TEXT CHECK(status IN ('Accepted Request', 'Users Created', 'Jira Request Made', 'Domain Added', 'Quarantine - 1', 'Quarantine - 2', 'Quarantine - 3', 'Completed')) DEFAULT 'Accepted Request',
		date_when_finished TEXT
	)`)
	exec(t, db.SQL, `INSERT INTO units (mil_unit, status, date_when_finished) VALUES ('А1', 'Completed', '2024-01-10')`)
	exec(t, db.SQL, `INSERT INTO units (mil_unit, status) VALUES ('А2', 'Jira Request Made')`)
	exec(t, db.SQL, `INSERT INTO units (mil_unit, status) VALUES ('А3', 'Quarantine - 1')`)
	exec(t, db.SQL, `INSERT INTO units (mil_unit) VALUES ('А4')`)
	exec(t, db.SQL, `INSERT INTO units (mil_unit) VALUES ('А5')`)
	exec(t, db.SQL, `DELETE FROM units WHERE mil_unit = 'А5'`)

	if err := Initialize(ctx, cfg, db, testLogger()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	got := statusesByID(t, db.SQL)
	want := map[int64]string{
		1: "Done",
		2: "Jira ticket",
		3: "Final configuration",
		4: "Created accounts",
	}
	for id, st := range want {
		if got[id] != st {
			t.Errorf("id=%d: статус = %q, ожидался %q", id, got[id], st)
		}
	}
	if len(got) != len(want) {
		t.Errorf("записей = %d, ожидалось %d", len(got), len(want))
	}

	// Недостающие столбцы добавлены
	exec(t, db.SQL, `UPDATE units SET computer_name = 'PC-1001', ip_address = '10.0.0.1' WHERE id = 1`)
	var legend int
	if err := db.SQL.QueryRow(`SELECT sended_to_legend FROM units WHERE id = 1`).Scan(&legend); err != nil {
		t.Fatalf("sended_to_legend: %v", err)
	}
	if legend != 0 {
		t.Errorf("sended_to_legend = %d, ожидался 0", legend)
	}

	// Старые статусы больше не принимаются
	if _, err := db.SQL.Exec(`INSERT INTO units (mil_unit, status) VALUES ('А6', 'Completed')`); err == nil {
		t.Error("ожидалась ошибка CHECK для старого статуса")
	}

	// id не переиспользуются после пересоздания таблицы
	exec(t, db.SQL, `INSERT INTO units (mil_unit) VALUES ('А7')`)
	var maxID int64
	if err := db.SQL.QueryRow(`SELECT MAX(id) FROM units`).Scan(&maxID); err != nil {
		t.Fatalf("max id: %v", err)
	}
	if maxID != 6 {
		t.Errorf("новый id = %d, ожидался 6", maxID)
	}
}

func TestInitialize_LegacyWithoutConstraint(t *testing.T) {
	cfg, db := openTestSQLite(t)
	ctx := context.Background()

	// Версия без CHECK и с украинскими статусами
	exec(t, db.SQL, `CREATE TABLE units (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name_of_unit TEXT,
		brigade_or_higher TEXT,
		mil_unit TEXT NOT NULL,
		description TEXT,
		email TEXT,
		status TEXT DEFAULT 'Створені користувачі',
		date_when_finished TEXT,
		computer_name TEXT,
		ip_address TEXT
	)`)
	for _, st := range []string{"Завершено", "finita", "відхилено", "Налаштовано MFA", "зовсім невідомий"} {
		exec(t, db.SQL, `INSERT INTO units (mil_unit, status) VALUES ('А0998', ?)`, st)
	}

	if err := Initialize(ctx, cfg, db, testLogger()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	got := statusesByID(t, db.SQL)
	want := []string{"Done", "Done", "Rejected", "Final configuration", "Created accounts"}
	for i, st := range want {
		if got[int64(i+1)] != st {
			t.Errorf("id=%d: статус = %q, ожидался %q", i+1, got[int64(i+1)], st)
		}
	}

	var ddl string
	if err := db.SQL.QueryRow(`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'units'`).Scan(&ddl); err != nil {
		t.Fatalf("ddl: %v", err)
	}
	if !sameLabels(parseCheckLabels(ddl), workflow.Strings()) {
		t.Errorf("DDL после миграции не содержит текущий workflow: %s", ddl)
	}
}

func TestRebuildSQLite_FailureKeepsOldTable(t *testing.T) {
	_, db := openTestSQLite(t)
	ctx := context.Background()

	exec(t, db.SQL, `CREATE TABLE units (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name_of_unit TEXT, brigade_or_higher TEXT, mil_unit TEXT NOT NULL,
		description TEXT, email TEXT, status TEXT, date_when_finished TEXT,
		computer_name TEXT, ip_address TEXT, sended_to_legend INTEGER DEFAULT 0
	)`)
	exec(t, db.SQL, `INSERT INTO units (mil_unit, status) VALUES ('А1', 'Completed')`)
	// units_new уже занята — CREATE TABLE внутри транзакции упадёт
	exec(t, db.SQL, `CREATE TABLE units_new (x INTEGER)`)

	if _, err := Evolve(ctx, db); err == nil {
		t.Fatal("ожидалась ошибка пересоздания")
	}

	got := statusesByID(t, db.SQL)
	if got[1] != "Completed" {
		t.Errorf("статус после неудачной миграции = %q, ожидался исходный Completed", got[1])
	}
}

func TestStatusRemapCase(t *testing.T) {
	expr, args := statusRemapCase(questionMarks)

	if !strings.HasPrefix(expr, "CASE WHEN status IN (?, ?, ?, ?, ?) THEN status") {
		t.Errorf("expr = %q", expr)
	}
	if strings.Count(expr, "?") != len(args) {
		t.Errorf("placeholders = %d, args = %d", strings.Count(expr, "?"), len(args))
	}
	if args[len(args)-1] != string(workflow.First()) {
		t.Errorf("ELSE = %v, ожидался первый этап", args[len(args)-1])
	}

	pgExpr, pgArgs := statusRemapCase(dollarN)
	if !strings.Contains(pgExpr, "$1") || !strings.HasSuffix(pgExpr, "ELSE $"+strconv.Itoa(len(pgArgs))+" END") {
		t.Errorf("pg expr = %q", pgExpr)
	}
}

func TestParseCheckLabels(t *testing.T) {
	tests := []struct {
		name string
		ddl  string
		want []string
	}{
		{"нет ограничения", "CREATE TABLE units (status TEXT)", nil},
		{"sqlite", "status TEXT CHECK(status IN ('A', 'B''s')) DEFAULT 'A'", []string{"A", "B's"}},
		{"с пробелами", "CHECK ( status  IN ( 'Done' ) )", []string{"Done"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCheckLabels(tt.ddl)
			if len(got) != len(tt.want) {
				t.Fatalf("parseCheckLabels = %v, ожидалось %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %q, ожидалось %q", i, got[i], tt.want[i])
				}
			}
		})
	}

	pgDef := "CHECK ((status = ANY (ARRAY['Created accounts'::text, 'Done'::text])))"
	if got := parseLiterals(pgDef); len(got) != 2 || got[0] != "Created accounts" {
		t.Errorf("parseLiterals(pg) = %v", got)
	}
}

func TestReadinessChecker(t *testing.T) {
	_, db := openTestSQLite(t)
	checker := NewReadinessChecker(db)

	status, _ := checker.CheckReady()
	if status != "ok" {
		t.Errorf("status = %q, ожидался ok", status)
	}

	db.SQL.Close()
	status, _ = checker.CheckReady()
	if status != "fail" {
		t.Errorf("status после закрытия = %q, ожидался fail", status)
	}
}
