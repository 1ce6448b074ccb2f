package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

// pgUnitRepo — реализация UnitRepository через pgx.
type pgUnitRepo struct {
	db DBTX
}

// NewPostgresUnitRepository создаёт репозиторий подразделений поверх PostgreSQL.
func NewPostgresUnitRepository(db DBTX) UnitRepository {
	return &pgUnitRepo{db: db}
}

func (r *pgUnitRepo) List(ctx context.Context) ([]*model.Unit, error) {
	query := fmt.Sprintf(`SELECT %s FROM units ORDER BY id DESC`, unitColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка подразделений: %w", err)
	}
	return collectPgRows(rows)
}

func (r *pgUnitRepo) GetByID(ctx context.Context, id int64) (*model.Unit, error) {
	query := fmt.Sprintf(`SELECT %s FROM units WHERE id = $1`, unitColumns)

	u, err := scanUnit(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения подразделения: %w", err)
	}
	return u, nil
}

func (r *pgUnitRepo) Create(ctx context.Context, fields model.UnitFields) (*model.Unit, error) {
	query := `
		INSERT INTO units (name_of_unit, brigade_or_higher, mil_unit, description, email,
			status, date_when_finished, computer_name, ip_address, sended_to_legend)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, query, fieldArgs(fields)...).Scan(&id); err != nil {
		return nil, fmt.Errorf("ошибка создания подразделения: %w", err)
	}
	return newUnit(id, fields), nil
}

func (r *pgUnitRepo) Update(ctx context.Context, id int64, fields model.UnitFields) (*model.Unit, error) {
	query := `
		UPDATE units SET
			name_of_unit = $1, brigade_or_higher = $2, mil_unit = $3, description = $4, email = $5,
			status = $6, date_when_finished = $7, computer_name = $8, ip_address = $9, sended_to_legend = $10
		WHERE id = $11`

	args := append(fieldArgs(fields), id)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления подразделения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return newUnit(id, fields), nil
}

func (r *pgUnitRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления подразделения: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgUnitRepo) Search(ctx context.Context, term string, limit int) ([]*model.Unit, error) {
	conds := make([]string, len(searchColumns))
	for i, col := range searchColumns {
		conds[i] = fmt.Sprintf(`%s ILIKE $1`, col)
	}

	query := fmt.Sprintf(`SELECT %s FROM units WHERE %s ORDER BY id DESC LIMIT $2`,
		unitColumns, strings.Join(conds, " OR "))

	rows, err := r.db.Query(ctx, query, likePattern(term), limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска подразделений: %w", err)
	}
	return collectPgRows(rows)
}

func (r *pgUnitRepo) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*) FROM units
		WHERE status IS NOT NULL
		GROUP BY status
		ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта по статусам: %w", err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StatusCount, error) {
		var sc model.StatusCount
		err := row.Scan(&sc.Status, &sc.Count)
		return sc, err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования счётчиков: %w", err)
	}
	if result == nil {
		result = []model.StatusCount{}
	}
	return result, nil
}

// collectPgRows читает все строки pgx. Пустой результат — пустой срез.
func collectPgRows(rows pgx.Rows) ([]*model.Unit, error) {
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Unit, error) {
		return scanUnit(row)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования подразделения: %w", err)
	}
	if result == nil {
		result = []*model.Unit{}
	}
	return result, nil
}
