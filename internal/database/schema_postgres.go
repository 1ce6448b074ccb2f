// schema_postgres.go — эволюция схемы units для PostgreSQL.
// В отличие от SQLite, ограничение заменяется без пересоздания таблицы:
// PostgreSQL поддерживает транзакционный DDL.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
)

// statusConstraint — имя CHECK-ограничения статуса.
const statusConstraint = "units_status_check"

func evolvePostgres(ctx context.Context, pool *pgxpool.Pool) (*EvolveResult, error) {
	res := &EvolveResult{}

	added, err := ensureColumnsPostgres(ctx, pool)
	if err != nil {
		return nil, err
	}
	res.AddedColumns = added

	var def string
	err = pool.QueryRow(ctx, `
		SELECT pg_get_constraintdef(c.oid)
		FROM pg_constraint c
		WHERE c.conrelid = 'units'::regclass AND c.conname = $1`, statusConstraint).Scan(&def)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("чтение ограничения статуса: %w", err)
	}

	q, args := strayStatusQuery(dollarN)
	var stray int64
	if err := pool.QueryRow(ctx, q, args...).Scan(&stray); err != nil {
		return nil, fmt.Errorf("подсчёт статусов вне workflow: %w", err)
	}

	if sameLabels(parseLiterals(def), workflow.Strings()) && stray == 0 {
		return res, nil
	}

	if err := replaceStatusConstraint(ctx, pool); err != nil {
		return nil, err
	}
	res.StatusRebuilt = true
	res.Remapped = stray
	return res, nil
}

// ensureColumnsPostgres добавляет отсутствующие столбцы.
func ensureColumnsPostgres(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'units'`)
	if err != nil {
		return nil, fmt.Errorf("чтение столбцов units: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("сканирование столбцов units: %w", err)
	}
	existing := make(map[string]bool, len(names))
	for _, n := range names {
		existing[n] = true
	}

	var added []string
	for _, c := range addableColumns {
		if existing[c.name] {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE units ADD COLUMN IF NOT EXISTS %s %s`, c.name, c.ddl)
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("добавление столбца %s: %w", c.name, err)
		}
		added = append(added, c.name)
	}
	return added, nil
}

// replaceStatusConstraint переводит статусы и заменяет ограничение в одной транзакции.
func replaceStatusConstraint(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if _, err := tx.Exec(ctx, fmt.Sprintf(`ALTER TABLE units DROP CONSTRAINT IF EXISTS %s`, statusConstraint)); err != nil {
		return fmt.Errorf("удаление ограничения статуса: %w", err)
	}

	caseExpr, args := statusRemapCase(dollarN)
	if _, err := tx.Exec(ctx, `UPDATE units SET status = `+caseExpr, args...); err != nil {
		return fmt.Errorf("перевод статусов: %w", err)
	}

	addStmt := fmt.Sprintf(`ALTER TABLE units ADD CONSTRAINT %s CHECK (status IN (%s))`,
		statusConstraint, statusLiterals())
	if _, err := tx.Exec(ctx, addStmt); err != nil {
		return fmt.Errorf("создание ограничения статуса: %w", err)
	}

	defStmt := fmt.Sprintf(`ALTER TABLE units ALTER COLUMN status SET DEFAULT %s`,
		quoteLiteral(string(workflow.First())))
	if _, err := tx.Exec(ctx, defStmt); err != nil {
		return fmt.Errorf("обновление значения статуса по умолчанию: %w", err)
	}

	return tx.Commit(ctx)
}
