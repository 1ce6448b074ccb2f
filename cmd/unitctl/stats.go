package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bigkaa/unit-tracker/internal/client"
	"github.com/bigkaa/unit-tracker/internal/seed"
)

// StatsCommand — статистика по этапам workflow.
type StatsCommand struct {
	root *RootCommand
}

// GetCobraCommand возвращает команду stats.
func (c *StatsCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Статистика по этапам workflow",
		Long: `Показывает число подразделений на каждом этапе и сколько подразделений
дошло до этапа (накопительно). Отклонённые показываются отдельно.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := c.root.newStore()
			defer store.Close()

			if err := store.RefreshStats(cmd.Context()); err != nil {
				return withBanner("error.load", err)
			}
			stats := store.Stats()
			return c.root.print(stats, func(w io.Writer) { c.root.printStats(w, stats) })
		},
	}
}

// StatusesCommand — этапы workflow с подписями.
type StatusesCommand struct {
	root *RootCommand
}

// GetCobraCommand возвращает команду statuses.
func (c *StatusesCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "Этапы workflow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := c.root.api.Statuses(cmd.Context())
			if err != nil {
				return withBanner("error.load", err)
			}
			return c.root.print(statuses, func(w io.Writer) { printStatuses(w, statuses) })
		},
	}
}

func printStatuses(w io.Writer, statuses []client.StatusInfo) {
	tbl := newTable(w, "Value", "Label", "Terminal")
	for _, s := range statuses {
		tbl.AddRow(s.Value, s.Label, s.Terminal)
	}
	tbl.Print()
}

// SeedCommand — генерация демонстрационных подразделений через API.
type SeedCommand struct {
	root  *RootCommand
	count int
	seed  uint64
}

// GetCobraCommand возвращает команду seed.
func (c *SeedCommand) GetCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Создать демонстрационные подразделения",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.count <= 0 {
				return errors.New("--count должен быть больше 0")
			}
			s := c.seed
			if !cmd.Flags().Changed("seed") {
				s = uint64(time.Now().UnixNano())
			}

			store := c.root.newStore()
			defer store.Close()

			ctx := cmd.Context()
			created, err := seed.Seed(ctx, store, seed.NewGenerator(s), c.count, c.root.logger)
			if err != nil {
				return withBanner("error.create", err)
			}

			if err := store.RefreshStats(ctx); err != nil {
				return withBanner("error.load", err)
			}
			stats := store.Stats()
			result := map[string]any{"created": len(created), "stats": stats}
			return c.root.print(result, func(w io.Writer) {
				_, _ = fmt.Fprintln(w, c.root.tf("seed.created", len(created)))
				c.root.printStats(w, stats)
			})
		},
	}
	cmd.Flags().IntVarP(&c.count, "count", "n", 100, "Количество подразделений")
	cmd.Flags().Uint64Var(&c.seed, "seed", 0, "Зерно генератора (по умолчанию случайное)")
	return cmd
}
