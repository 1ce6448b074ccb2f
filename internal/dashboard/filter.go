package dashboard

import (
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

// Ключи фильтра по диапазону даты завершения.
const (
	FilterDateFrom = "date_from"
	FilterDateTo   = "date_to"
)

// ApplyFilters возвращает подразделения, прошедшие все непустые фильтры (AND).
//   - строковые поля: подстрока без учёта регистра, NULL не проходит;
//   - id и sended_to_legend: числовое равенство, NULL флага считается 0;
//   - date_from/date_to: включительный диапазон по date_when_finished,
//     date_to включает весь день (UTC); без даты или с нечитаемой датой
//     запись не проходит.
//
// Фильтры по неизвестным полям игнорируются. Порядок сохраняется.
func ApplyFilters(units []*model.Unit, filters map[string]string) []*model.Unit {
	active := make(map[string]string, len(filters))
	for k, v := range filters {
		if v != "" {
			active[k] = v
		}
	}

	out := make([]*model.Unit, 0, len(units))
	for _, u := range units {
		if matchesAll(u, active) {
			out = append(out, u)
		}
	}
	return out
}

func matchesAll(u *model.Unit, filters map[string]string) bool {
	for field, want := range filters {
		if !matches(u, field, want) {
			return false
		}
	}
	return true
}

func matches(u *model.Unit, field, want string) bool {
	switch field {
	case FilterDateFrom, FilterDateTo:
		return matchesDate(u, field, want)
	case model.FieldID:
		n, err := strconv.ParseInt(strings.TrimSpace(want), 10, 64)
		return err == nil && n == u.ID
	case model.FieldSendedToLegend:
		n, err := strconv.Atoi(strings.TrimSpace(want))
		if err != nil {
			return false
		}
		have := 0
		if u.SendedToLegend != nil {
			have = *u.SendedToLegend
		}
		return have == n
	case model.FieldMilUnit:
		return containsFold(u.MilUnit, want)
	case model.FieldStatus:
		return containsFold(u.Status, want)
	}

	if !isStringField(field) {
		return true
	}
	p := stringField(u, field)
	return p != nil && containsFold(*p, want)
}

// matchesDate проверяет границу диапазона. Нечитаемая граница не ограничивает.
func matchesDate(u *model.Unit, field, bound string) bool {
	if u.DateWhenFinished == nil {
		return false
	}
	have, ok := model.ParseDate(*u.DateWhenFinished)
	if !ok {
		return false
	}
	limit, ok := model.ParseDate(bound)
	if !ok {
		return true
	}
	if field == FilterDateFrom {
		return !have.Before(limit)
	}
	return have.Before(endOfDay(limit))
}

// endOfDay — начало следующих суток в UTC (исключающая граница).
func endOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

func isStringField(field string) bool {
	switch field {
	case model.FieldNameOfUnit, model.FieldBrigadeOrHigher, model.FieldDescription,
		model.FieldEmail, model.FieldDateWhenFinished, model.FieldComputerName, model.FieldIPAddress:
		return true
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
