// Пакет seed — генератор демонстрационных подразделений.
// Значения правдоподобны для workflow: данные рабочей станции появляются
// только после первого этапа, дата завершения — только у Done.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
)

var (
	brigades = []string{
		"10-та бригада", "12-та бригада", "17-та бригада", "24-та бригада", "28-ма бригада",
		"30-та бригада", "35-та бригада", "43-тя бригада", "53-тя бригада", "59-та бригада",
		"60-та бригада", "65-та бригада", "72-га бригада", "79-та бригада", "93-тя бригада",
		"128-ма бригада", "201-й батальйон", "225-й батальйон", "112-та бригада", "115-та бригада",
	}

	descriptions = []string{
		"Підрозділ ППО", "Артилерійський підрозділ", "Механізований підрозділ",
		"Інженерний підрозділ", "Підрозділ зв'язку", "Підрозділ РЕБ",
		"Медичний підрозділ", "Логістичний підрозділ", "Розвідувальний підрозділ",
		"Штабний підрозділ", "Аеророзвідка", "Танковий підрозділ",
	}

	hostPrefixes = []string{"PC", "LT", "WS", "SRV"}
	mailDomains  = []string{"mil.gov.ua", "army.ua", "forces.ua"}
)

// finishedFrom — нижняя граница случайной даты завершения.
var finishedFrom = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// Generator создаёт случайные подразделения.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator создаёт генератор с указанным зерном. Одинаковое зерно
// даёт одинаковую последовательность (при фиксированном now).
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
}

// Unit возвращает поля одного случайного подразделения.
func (g *Generator) Unit() model.UnitFields {
	number := 100 + g.rnd.IntN(900)
	status := g.pick(workflow.Strings())

	f := model.UnitFields{
		NameOfUnit:      model.StringPtr(fmt.Sprintf("Підрозділ %d", number)),
		BrigadeOrHigher: model.StringPtr(g.pick(brigades)),
		MilUnit:         fmt.Sprintf("А%04d", g.rnd.IntN(10000)),
		Description:     model.StringPtr(g.pick(descriptions)),
		Email:           model.StringPtr(fmt.Sprintf("unit%d.%d@%s", number, g.rnd.IntN(100), g.pick(mailDomains))),
		Status:          status,
		SendedToLegend:  model.IntPtr(0),
	}

	if workflow.Status(status) != workflow.First() {
		f.ComputerName = model.StringPtr(fmt.Sprintf("%s-%d", g.pick(hostPrefixes), 1000+g.rnd.IntN(9000)))
		f.IPAddress = model.StringPtr(fmt.Sprintf("10.%d.%d.%d", g.rnd.IntN(255), g.rnd.IntN(255), g.rnd.IntN(255)))
	}
	if workflow.Status(status).IsSuccess() {
		f.DateWhenFinished = model.StringPtr(g.date())
		f.SendedToLegend = model.IntPtr(g.rnd.IntN(2))
	}
	return f
}

// Units возвращает n случайных подразделений.
func (g *Generator) Units(n int) []model.UnitFields {
	out := make([]model.UnitFields, n)
	for i := range out {
		out[i] = g.Unit()
	}
	return out
}

func (g *Generator) pick(values []string) string {
	return values[g.rnd.IntN(len(values))]
}

// date — случайная дата от finishedFrom до сегодняшнего дня, YYYY-MM-DD.
func (g *Generator) date() string {
	span := g.now().UTC().Sub(finishedFrom)
	if span <= 0 {
		return finishedFrom.Format(time.DateOnly)
	}
	return finishedFrom.Add(time.Duration(g.rnd.Int64N(int64(span)))).Format(time.DateOnly)
}

// Creator — операция создания подразделения (client.Client, dashboard.Store).
type Creator interface {
	Create(ctx context.Context, fields model.UnitFields) (*model.Unit, error)
}

// Seed создаёт n случайных подразделений через creator.
// Останавливается на первой ошибке, возвращая уже созданные.
func Seed(ctx context.Context, creator Creator, g *Generator, n int, logger *slog.Logger) ([]*model.Unit, error) {
	created := make([]*model.Unit, 0, n)
	for i, fields := range g.Units(n) {
		u, err := creator.Create(ctx, fields)
		if err != nil {
			return created, fmt.Errorf("создание подразделения %d из %d: %w", i+1, n, err)
		}
		created = append(created, u)
	}
	logger.Info("Демонстрационные подразделения созданы", slog.Int("count", len(created)))
	return created, nil
}
