package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bigkaa/unit-tracker/internal/dashboard"
	"github.com/bigkaa/unit-tracker/internal/domain/model"
	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
)

// ListCommand — таблица подразделений с фильтрами и сортировкой.
type ListCommand struct {
	root     *RootCommand
	filters  []string
	sort     string
	desc     bool
	watch    bool
	interval time.Duration
}

// GetCobraCommand возвращает команду list.
func (c *ListCommand) GetCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"dashboard", "ls"},
		Short:   "Таблица подразделений",
		Long: `Показывает все подразделения с фильтрами и сортировкой.

Фильтр задаётся как поле=значение, несколько фильтров объединяются по AND:
  unitctl list --filter status=Done --filter brigade_or_higher=72
Диапазон даты завершения: --filter date_from=2024-01-01 --filter date_to=2024-12-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&c.filters, "filter", "f", nil, "Фильтр поле=значение (повторяемый)")
	cmd.Flags().StringVarP(&c.sort, "sort", "s", "", "Поле сортировки")
	cmd.Flags().BoolVar(&c.desc, "desc", false, "Сортировка по убыванию")
	cmd.Flags().BoolVarP(&c.watch, "watch", "w", false, "Обновлять таблицу периодически")
	cmd.Flags().DurationVar(&c.interval, "interval", dashboard.RefreshInterval, "Период обновления для --watch")

	_ = cmd.RegisterFlagCompletionFunc("sort", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return detailColumns, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *ListCommand) run(cmd *cobra.Command) error {
	r := c.root
	filters, err := parseFilters(c.filters)
	if err != nil {
		return err
	}

	store := r.newStore()
	defer store.Close()

	for field, value := range filters {
		store.SetFilter(field, value)
	}
	if c.sort != "" {
		store.Sort(c.sort)
		if c.desc {
			store.Sort(c.sort)
		}
	}

	ctx := cmd.Context()
	if err := store.Load(ctx); err != nil {
		return withBanner("error.load", err)
	}
	if err := c.render(store); err != nil {
		return err
	}
	if !c.watch {
		return nil
	}

	refresher := dashboard.NewRefresher(store, c.interval, r.logger, func() {
		if err := c.render(store); err != nil {
			r.logger.Warn("Ошибка вывода", slog.String("error", err.Error()))
		}
	})
	refresher.Start(ctx)
	<-ctx.Done()
	refresher.Stop()
	return nil
}

func (c *ListCommand) render(store *dashboard.Store) error {
	r := c.root
	view := store.Dashboard()
	return r.print(view.Result, func(w io.Writer) {
		if c.watch {
			_, _ = fmt.Fprintf(w, "\n%s\n", r.tf("watch.updated", store.LoadedAt().Format(time.TimeOnly)))
		}
		r.printUnits(w, view.Result, "list.empty")
	})
}

// parseFilters разбирает аргументы поле=значение.
func parseFilters(args []string) (map[string]string, error) {
	filters := make(map[string]string, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("фильтр %q: ожидается поле=значение", arg)
		}
		filters[field] = value
	}
	return filters, nil
}

// GetCommand — карточка подразделения.
type GetCommand struct {
	root *RootCommand
}

// GetCobraCommand возвращает команду get.
func (c *GetCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Карточка подразделения",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store := c.root.newStore()
			defer store.Close()

			u, err := store.Open(cmd.Context(), id)
			if err != nil {
				return withBanner("error.load", err)
			}
			return c.root.print(u, func(w io.Writer) { c.root.printUnit(w, u) })
		},
	}
}

// unitFlags — флаги полей подразделения для create и update.
type unitFlags struct {
	name        string
	brigade     string
	milUnit     string
	description string
	email       string
	status      string
	date        string
	computer    string
	ip          string
	legend      int
}

// flagFields связывает имя флага с полем подразделения.
var flagFields = map[string]string{
	"name":        model.FieldNameOfUnit,
	"brigade":     model.FieldBrigadeOrHigher,
	"mil-unit":    model.FieldMilUnit,
	"description": model.FieldDescription,
	"email":       model.FieldEmail,
	"status":      model.FieldStatus,
	"date":        model.FieldDateWhenFinished,
	"computer":    model.FieldComputerName,
	"ip":          model.FieldIPAddress,
	"legend":      model.FieldSendedToLegend,
}

func (f *unitFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "Название подразделения")
	fs.StringVar(&f.brigade, "brigade", "", "Бригада или вышестоящее формирование")
	fs.StringVar(&f.milUnit, "mil-unit", "", "Номер военной части")
	fs.StringVar(&f.description, "description", "", "Описание")
	fs.StringVar(&f.email, "email", "", "Контактный email")
	fs.StringVar(&f.status, "status", "", "Этап workflow ("+strings.Join(workflow.Strings(), ", ")+")")
	fs.StringVar(&f.date, "date", "", "Дата завершения YYYY-MM-DD")
	fs.StringVar(&f.computer, "computer", "", "Имя рабочей станции")
	fs.StringVar(&f.ip, "ip", "", "IP-адрес рабочей станции")
	fs.IntVar(&f.legend, "legend", 0, "Передано в Legend (0 или 1)")

	_ = cmd.RegisterFlagCompletionFunc("status", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return workflow.Strings(), cobra.ShellCompDirectiveNoFileComp
	})
}

// apply переносит заданные флаги в поля. Незаданные флаги поля не меняют,
// пустое значение флага очищает поле (NULL).
func (f *unitFlags) apply(changed func(name string) bool, fields *model.UnitFields) {
	set := func(flag string, dst **string, value string) {
		switch {
		case !changed(flag):
		case value == "":
			*dst = nil
		default:
			*dst = model.StringPtr(value)
		}
	}
	set("name", &fields.NameOfUnit, f.name)
	set("brigade", &fields.BrigadeOrHigher, f.brigade)
	set("description", &fields.Description, f.description)
	set("email", &fields.Email, f.email)
	set("date", &fields.DateWhenFinished, f.date)
	set("computer", &fields.ComputerName, f.computer)
	set("ip", &fields.IPAddress, f.ip)
	if changed("mil-unit") {
		fields.MilUnit = f.milUnit
	}
	if changed("status") {
		fields.Status = f.status
	}
	if changed("legend") {
		fields.SendedToLegend = model.IntPtr(f.legend)
	}
}

// CreateCommand — создание подразделения.
type CreateCommand struct {
	root  *RootCommand
	flags unitFlags
}

// GetCobraCommand возвращает команду create.
func (c *CreateCommand) GetCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Создать подразделение",
		Example: `  unitctl create --mil-unit А1234 --name "Підрозділ 101" --status "Created accounts"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var fields model.UnitFields
			c.flags.apply(cmd.Flags().Changed, &fields)

			store := c.root.newStore()
			defer store.Close()

			u, err := store.Create(cmd.Context(), fields)
			if err != nil {
				return withBanner("error.create", err)
			}
			return c.root.print(u, func(w io.Writer) { c.root.printUnit(w, u) })
		},
	}
	c.flags.register(cmd)
	return cmd
}

// UpdateCommand — изменение подразделения.
// API заменяет запись целиком, поэтому флаги накладываются на текущую запись.
type UpdateCommand struct {
	root  *RootCommand
	flags unitFlags
}

// GetCobraCommand возвращает команду update.
func (c *UpdateCommand) GetCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Изменить подразделение",
		Example: `  unitctl update 42 --status Done --date 2024-05-01`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store := c.root.newStore()
			defer store.Close()

			ctx := cmd.Context()
			current, err := store.Open(ctx, id)
			if err != nil {
				return withBanner("error.load", err)
			}

			fields := current.UnitFields
			c.flags.apply(cmd.Flags().Changed, &fields)

			u, err := store.Update(ctx, id, fields)
			if err != nil {
				return withBanner("error.update", err)
			}
			return c.root.print(u, func(w io.Writer) { c.root.printUnit(w, u) })
		},
	}
	c.flags.register(cmd)
	return cmd
}

// DeleteCommand — удаление подразделения.
type DeleteCommand struct {
	root *RootCommand
}

// GetCobraCommand возвращает команду delete.
func (c *DeleteCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Удалить подразделение",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store := c.root.newStore()
			defer store.Close()

			msg, err := store.Delete(cmd.Context(), id)
			if err != nil {
				return withBanner("error.delete", err)
			}
			result := map[string]any{"id": id, "message": msg}
			return c.root.print(result, func(w io.Writer) {
				_, _ = fmt.Fprintln(w, msg)
			})
		},
	}
}

// SearchCommand — поиск подразделений на сервере.
type SearchCommand struct {
	root *RootCommand
}

// GetCobraCommand возвращает команду search.
func (c *SearchCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Поиск по названию, бригаде, части, описанию, email, ПК, IP и статусу",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := c.root.newStore()
			defer store.Close()

			if err := store.PerformSearch(cmd.Context(), strings.Join(args, " ")); err != nil {
				return withBanner("error.load", err)
			}
			units := store.Search().Results
			return c.root.print(units, func(w io.Writer) {
				c.root.printUnits(w, units, "search.no_results")
			})
		},
	}
}

// newStore — хранилище состояния поверх клиента API.
func (c *RootCommand) newStore() *dashboard.Store {
	return dashboard.NewStore(c.api, c.logger)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("некорректный id подразделения: %q", s)
	}
	return id, nil
}
