package dashboard

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

// Direction — направление сортировки.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Reverse возвращает противоположное направление.
func (d Direction) Reverse() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// SortUnits возвращает новый срез, отсортированный по field.
// Сортировка устойчивая, NULL всегда в конце независимо от направления.
// Строки сравниваются с учётом локали (украинская коллация), id и
// sended_to_legend — как числа. Неизвестное поле сохраняет порядок.
func SortUnits(units []*model.Unit, field string, dir Direction) []*model.Unit {
	out := make([]*model.Unit, len(units))
	copy(out, units)
	if field == "" {
		return out
	}

	col := collate.New(language.Ukrainian)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := fieldOf(out[i], field), fieldOf(out[j], field)
		switch {
		case a.null:
			return false
		case b.null:
			return true
		}

		var c int
		if a.numeric {
			c = compareInt(a.num, b.num)
		} else {
			c = col.CompareString(a.str, b.str)
		}
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// value — значение поля для сравнения.
type value struct {
	str     string
	num     int64
	numeric bool
	null    bool
}

// fieldOf извлекает значение поля подразделения по имени столбца.
func fieldOf(u *model.Unit, field string) value {
	switch field {
	case model.FieldID:
		return value{num: u.ID, numeric: true}
	case model.FieldSendedToLegend:
		if u.SendedToLegend == nil {
			return value{numeric: true, null: true}
		}
		return value{num: int64(*u.SendedToLegend), numeric: true}
	case model.FieldMilUnit:
		return value{str: u.MilUnit}
	case model.FieldStatus:
		return value{str: u.Status}
	}

	p := stringField(u, field)
	if p == nil {
		return value{null: true}
	}
	return value{str: *p}
}

// stringField — необязательное строковое поле по имени; nil для неизвестных.
func stringField(u *model.Unit, field string) *string {
	switch field {
	case model.FieldNameOfUnit:
		return u.NameOfUnit
	case model.FieldBrigadeOrHigher:
		return u.BrigadeOrHigher
	case model.FieldDescription:
		return u.Description
	case model.FieldEmail:
		return u.Email
	case model.FieldDateWhenFinished:
		return u.DateWhenFinished
	case model.FieldComputerName:
		return u.ComputerName
	case model.FieldIPAddress:
		return u.IPAddress
	}
	return nil
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
