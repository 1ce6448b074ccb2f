package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"gopkg.in/yaml.v3"

	"github.com/bigkaa/unit-tracker/internal/dashboard"
	"github.com/bigkaa/unit-tracker/internal/domain/model"
	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
	"github.com/bigkaa/unit-tracker/internal/i18n"
)

// emptyCell — отображение NULL в таблице.
const emptyCell = "-"

// listColumns — столбцы таблицы подразделений.
var listColumns = []string{
	model.FieldID,
	model.FieldMilUnit,
	model.FieldNameOfUnit,
	model.FieldBrigadeOrHigher,
	model.FieldStatus,
	model.FieldDateWhenFinished,
	model.FieldComputerName,
	model.FieldIPAddress,
	model.FieldSendedToLegend,
}

// detailColumns — поля карточки подразделения.
var detailColumns = []string{
	model.FieldID,
	model.FieldNameOfUnit,
	model.FieldBrigadeOrHigher,
	model.FieldMilUnit,
	model.FieldDescription,
	model.FieldEmail,
	model.FieldStatus,
	model.FieldDateWhenFinished,
	model.FieldComputerName,
	model.FieldIPAddress,
	model.FieldSendedToLegend,
}

// print выводит data в формате настроек. text рисует текстовое представление.
func (c *RootCommand) print(data any, text func(w io.Writer)) error {
	switch c.settings.Output {
	case outputJSON:
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case outputYAML:
		plain, err := toPlain(data)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		defer func() {
			_ = enc.Close()
		}()
		return enc.Encode(plain)
	default:
		text(c.out)
		return nil
	}
}

// toPlain переводит данные в map/slice по JSON-тегам,
// чтобы YAML использовал те же имена полей, что и API.
func toPlain(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("кодирование вывода: %w", err)
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("кодирование вывода: %w", err)
	}
	return plain, nil
}

// newTable создаёт таблицу с оформлением заголовков.
func newTable(w io.Writer, headers ...any) table.Table {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()
	return table.New(headers...).
		WithWriter(w).
		WithHeaderFormatter(headerFmt).
		WithFirstColumnFormatter(columnFmt)
}

// printUnits рисует таблицу подразделений; пустой список — сообщение emptyKey.
func (c *RootCommand) printUnits(w io.Writer, units []*model.Unit, emptyKey string) {
	if len(units) == 0 {
		_, _ = fmt.Fprintln(w, c.t(emptyKey))
		return
	}

	headers := make([]any, len(listColumns))
	for i, f := range listColumns {
		headers[i] = i18n.FieldLabel(c.settings.Lang, f)
	}
	tbl := newTable(w, headers...)
	for _, u := range units {
		row := make([]any, len(listColumns))
		for i, f := range listColumns {
			row[i] = c.cell(u, f)
		}
		tbl.AddRow(row...)
	}
	tbl.Print()
}

// printUnit рисует карточку подразделения: подпись поля и значение.
func (c *RootCommand) printUnit(w io.Writer, u *model.Unit) {
	tbl := newTable(w, c.t("detail.field"), c.t("detail.value"))
	for _, f := range detailColumns {
		tbl.AddRow(i18n.FieldLabel(c.settings.Lang, f), c.cell(u, f))
	}
	tbl.Print()
}

// cell — значение поля для таблицы; статус показывается подписью.
func (c *RootCommand) cell(u *model.Unit, field string) string {
	switch field {
	case model.FieldID:
		return strconv.FormatInt(u.ID, 10)
	case model.FieldMilUnit:
		return u.MilUnit
	case model.FieldStatus:
		return i18n.StatusLabel(c.settings.Lang, workflow.Status(u.Status))
	case model.FieldSendedToLegend:
		if u.SendedToLegend == nil {
			return emptyCell
		}
		return strconv.Itoa(*u.SendedToLegend)
	}
	if p := optionalField(u, field); p != nil && *p != "" {
		return *p
	}
	return emptyCell
}

func optionalField(u *model.Unit, field string) *string {
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

// barWidth — ширина полосы прогресса в символах при 100%.
const barWidth = 20

// printStats рисует этапы с накопительными счётчиками и отклонённые.
func (c *RootCommand) printStats(w io.Writer, stats dashboard.Statistics) {
	tbl := newTable(w, c.t("stats.stage"), c.t("stats.count"), c.t("stats.progressive"), "%", "")
	for _, st := range stats.Stages {
		tbl.AddRow(
			i18n.StatusLabel(c.settings.Lang, st.Status),
			st.Count,
			st.Reached,
			fmt.Sprintf("%.0f%%", st.Percent),
			bar(st.Percent),
		)
	}
	tbl.AddRow(
		c.t("stats.rejected"),
		stats.Rejected,
		emptyCell,
		fmt.Sprintf("%.0f%%", stats.RejectedPercent),
		color.RedString(bar(stats.RejectedPercent)),
	)
	tbl.Print()
	_, _ = fmt.Fprintf(w, "%s: %d\n", c.t("stats.total"), stats.Total)
}

func bar(percent float64) string {
	n := int(percent*barWidth/100 + 0.5)
	return strings.Repeat("█", n)
}
