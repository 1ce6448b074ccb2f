// Пакет repository — слой доступа к таблице units.
// Все запросы — чистый SQL без ORM: database/sql для SQLite, pgx для PostgreSQL.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bigkaa/unit-tracker/internal/config"
	"github.com/bigkaa/unit-tracker/internal/database"
	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

// ErrNotFound — запись не найдена.
var ErrNotFound = errors.New("запись не найдена")

// DBTX — интерфейс для выполнения SQL-запросов через pgx.
// Реализуется как *pgxpool.Pool, так и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UnitRepository — интерфейс доступа к подразделениям.
type UnitRepository interface {
	// List возвращает все подразделения, новые первыми.
	List(ctx context.Context) ([]*model.Unit, error)
	// GetByID возвращает подразделение или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Unit, error)
	// Create сохраняет подразделение и возвращает его с назначенным id.
	Create(ctx context.Context, fields model.UnitFields) (*model.Unit, error)
	// Update заменяет все поля подразделения. ErrNotFound, если id нет.
	Update(ctx context.Context, id int64, fields model.UnitFields) (*model.Unit, error)
	// Delete удаляет подразделение. Отсутствие id — не ошибка (deleted=false).
	Delete(ctx context.Context, id int64) (deleted bool, err error)
	// Search — поиск подстроки без учёта регистра по текстовым столбцам.
	Search(ctx context.Context, term string, limit int) ([]*model.Unit, error)
	// CountByStatus — количество подразделений по каждому присутствующему статусу.
	CountByStatus(ctx context.Context) ([]model.StatusCount, error)
}

// New выбирает реализацию по драйверу хранилища.
func New(db *database.DB) UnitRepository {
	if db.Driver == config.DriverPostgres {
		return NewPostgresUnitRepository(db.Pool)
	}
	return NewSQLiteUnitRepository(db.SQL)
}

// unitColumns — столбцы units для SELECT-запросов, порядок совпадает со scanUnit.
const unitColumns = `id, name_of_unit, brigade_or_higher, mil_unit, description, email,
	status, date_when_finished, computer_name, ip_address, sended_to_legend`

// searchColumns — столбцы, по которым ищет Search.
var searchColumns = []string{
	model.FieldNameOfUnit,
	model.FieldBrigadeOrHigher,
	model.FieldMilUnit,
	model.FieldDescription,
	model.FieldEmail,
	model.FieldComputerName,
	model.FieldIPAddress,
	model.FieldStatus,
}

// rowScanner — общий интерфейс *sql.Row, *sql.Rows и pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUnit читает строку в порядке unitColumns.
func scanUnit(row rowScanner) (*model.Unit, error) {
	u := &model.Unit{}
	var status *string
	if err := row.Scan(
		&u.ID, &u.NameOfUnit, &u.BrigadeOrHigher, &u.MilUnit, &u.Description, &u.Email,
		&status, &u.DateWhenFinished, &u.ComputerName, &u.IPAddress, &u.SendedToLegend,
	); err != nil {
		return nil, err
	}
	if status != nil {
		u.Status = *status
	}
	return u, nil
}

// fieldArgs — аргументы INSERT/UPDATE в порядке столбцов без id.
func fieldArgs(f model.UnitFields) []any {
	return []any{
		f.NameOfUnit, f.BrigadeOrHigher, f.MilUnit, f.Description, f.Email,
		f.Status, f.DateWhenFinished, f.ComputerName, f.IPAddress, f.SendedToLegend,
	}
}

// likePattern экранирует % _ \ и оборачивает term в %...%.
// Символы шаблона в поисковом запросе совпадают буквально.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// newUnit собирает результат Create/Update без повторного чтения.
func newUnit(id int64, f model.UnitFields) *model.Unit {
	return &model.Unit{ID: id, UnitFields: f.Clone()}
}
