package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

// sqliteUnitRepo — реализация UnitRepository через database/sql.
type sqliteUnitRepo struct {
	db *sql.DB
}

// NewSQLiteUnitRepository создаёт репозиторий подразделений поверх SQLite.
// Поиск использует функцию ulower, которую регистрирует драйвер
// database.SQLiteDriverName.
func NewSQLiteUnitRepository(db *sql.DB) UnitRepository {
	return &sqliteUnitRepo{db: db}
}

func (r *sqliteUnitRepo) List(ctx context.Context) ([]*model.Unit, error) {
	query := fmt.Sprintf(`SELECT %s FROM units ORDER BY id DESC`, unitColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка подразделений: %w", err)
	}
	return collectSQLRows(rows)
}

func (r *sqliteUnitRepo) GetByID(ctx context.Context, id int64) (*model.Unit, error) {
	query := fmt.Sprintf(`SELECT %s FROM units WHERE id = ?`, unitColumns)

	u, err := scanUnit(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения подразделения: %w", err)
	}
	return u, nil
}

func (r *sqliteUnitRepo) Create(ctx context.Context, fields model.UnitFields) (*model.Unit, error) {
	query := `
		INSERT INTO units (name_of_unit, brigade_or_higher, mil_unit, description, email,
			status, date_when_finished, computer_name, ip_address, sended_to_legend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, fieldArgs(fields)...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания подразделения: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения id подразделения: %w", err)
	}
	return newUnit(id, fields), nil
}

func (r *sqliteUnitRepo) Update(ctx context.Context, id int64, fields model.UnitFields) (*model.Unit, error) {
	query := `
		UPDATE units SET
			name_of_unit = ?, brigade_or_higher = ?, mil_unit = ?, description = ?, email = ?,
			status = ?, date_when_finished = ?, computer_name = ?, ip_address = ?, sended_to_legend = ?
		WHERE id = ?`

	args := append(fieldArgs(fields), id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления подразделения: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления подразделения: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return newUnit(id, fields), nil
}

func (r *sqliteUnitRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM units WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления подразделения: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ошибка удаления подразделения: %w", err)
	}
	return n > 0, nil
}

func (r *sqliteUnitRepo) Search(ctx context.Context, term string, limit int) ([]*model.Unit, error) {
	conds := make([]string, len(searchColumns))
	args := make([]any, 0, len(searchColumns)+1)
	pattern := likePattern(strings.ToLower(term))
	for i, col := range searchColumns {
		conds[i] = fmt.Sprintf(`ulower(COALESCE(%s, '')) LIKE ? ESCAPE '\'`, col)
		args = append(args, pattern)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM units WHERE %s ORDER BY id DESC LIMIT ?`,
		unitColumns, strings.Join(conds, " OR "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска подразделений: %w", err)
	}
	return collectSQLRows(rows)
}

func (r *sqliteUnitRepo) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM units
		WHERE status IS NOT NULL
		GROUP BY status
		ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта по статусам: %w", err)
	}
	defer rows.Close()

	result := []model.StatusCount{}
	for rows.Next() {
		var sc model.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования счётчика: %w", err)
		}
		result = append(result, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации счётчиков: %w", err)
	}
	return result, nil
}

// collectSQLRows читает все строки и закрывает rows.
// Пустой результат — пустой срез, не nil.
func collectSQLRows(rows *sql.Rows) ([]*model.Unit, error) {
	defer rows.Close()

	result := []*model.Unit{}
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования подразделения: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}
