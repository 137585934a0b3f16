package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/analytics"
	"ledger/internal/core"
	"ledger/internal/report"
	"ledger/internal/storage"
)

func (c *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Create the ledger database if needed and bring its schema to the
latest version. With --status only the current version is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath := c.dbPath()
			status, _ := cmd.Flags().GetBool("status")

			if !status {
				slog.Info("Running database migrations", "database", dbPath)
				repo, err := storage.NewSQLiteRepository(dbPath)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				_ = repo.Close()
			}

			version, dirty, err := storage.SchemaVersion(dbPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
	cmd.Flags().Bool("status", false, "show the current schema version without applying changes")
	return cmd
}

func (c *app) listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			typeFilter, _ := cmd.Flags().GetString("type")
			var want core.Type
			if typeFilter != "" {
				t, err := core.ParseType(typeFilter)
				if err != nil {
					return err
				}
				want = t
			}

			snap, err := c.scan(cmd)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION\tID")
			for _, t := range snap.Transactions {
				if want != "" && t.Type() != want {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.Date, t.Type(), t.Category.Name(), t.Amount, t.Description, t.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("type", "", "only show income or expense")
	return cmd
}

func (c *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print totals and per-category breakdowns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := c.scan(cmd)
			if err != nil {
				return err
			}
			writeSummary(cmd.OutOrStdout(), analytics.Summarize(snap.Transactions), analytics.Analyze(snap.Transactions))
			return nil
		},
	}
}

func writeSummary(w io.Writer, s core.Summary, a core.Analytics) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total income\t%s\n", s.TotalIncome)
	fmt.Fprintf(tw, "Total expense\t%s\n", s.TotalExpense)
	fmt.Fprintf(tw, "Net balance\t%s\n", s.NetBalance)
	fmt.Fprintf(tw, "Transactions\t%d\n", s.TransactionCount)

	section := func(title string, items []core.CategoryAmount) {
		fmt.Fprintf(tw, "\n%s\t\t\n", title)
		if len(items) == 0 {
			fmt.Fprintln(tw, "  (none)\t\t")
			return
		}
		for _, it := range items {
			fmt.Fprintf(tw, "  %s\t%s\t%s%%\n", it.Category.Name(), it.Amount, it.Percentage.StringFixed(2))
		}
	}
	section("Income by category", a.IncomeByCategory)
	section("Expense by category", a.ExpenseByCategory)
	_ = tw.Flush()
}

func (c *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the ledger as a PDF report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := c.scan(cmd)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = report.Filename(now)
			}

			a := analytics.Analyze(snap.Transactions)
			pdf, err := report.Render(report.Input{
				GeneratedAt:  now,
				Transactions: snap.Transactions,
				Summary:      analytics.Summarize(snap.Transactions),
				Income:       a.IncomeByCategory,
				Expense:      a.ExpenseByCategory,
			})
			if err != nil {
				return err
			}

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(out, pdf, 0644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			slog.Info("Report written", "path", out, "bytes", len(pdf), "transactions", snap.Len())
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().String("out", "", "output file (default: expense_report_YYYYMMDD.pdf)")
	return cmd
}

func (c *app) scan(cmd *cobra.Command) (core.Snapshot, error) {
	repo, err := storage.NewSQLiteRepository(c.dbPath())
	if err != nil {
		return core.Snapshot{}, err
	}
	defer repo.Close()
	return repo.Scan(cmd.Context())
}
