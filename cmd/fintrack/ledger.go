package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// cliSession scopes category lists for commands run from the terminal.
const cliSession = "cli"

func newTotalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Print ledger totals and the per-category expense breakdown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := appFrom(cmd).Service.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			writeDashboard(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func writeDashboard(w io.Writer, d services.Dashboard) {
	fmt.Fprintf(w, "Income:  %s\n", core.FormatAmount(d.Totals.Income))
	fmt.Fprintf(w, "Expense: %s\n", core.FormatAmount(d.Totals.Expense))
	fmt.Fprintf(w, "Balance: %s\n", core.FormatAmount(d.Totals.Balance))
	if len(d.ByCategory) == 0 {
		return
	}
	fmt.Fprintln(w, "\nExpenses by category:")
	for _, c := range d.ByCategory {
		fmt.Fprintf(w, "  %-20s %s\n", c.Name, core.FormatAmount(c.Amount))
	}
}

func newAddCmd() *cobra.Command {
	var in services.EntryInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append an income or expense entry",
		Example: `  fintrack add --kind expense --amount 250 --category Food --description "groceries"
  fintrack add --kind income --amount 50000 --category Salary --date 2024-03-01`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tx, err := appFrom(cmd).Service.AddEntry(cmd.Context(), cliSession, in)
			if err != nil {
				return err
			}
			amount := tx.Income
			if tx.Kind == core.KindExpense {
				amount = tx.Expense
			}
			cmd.Printf("Added %s of %s in %s on %s %s. Balance: %s\n",
				strings.ToLower(string(tx.Kind)), core.FormatAmount(amount), tx.Category,
				tx.Date, tx.Time, core.FormatAmount(tx.RemainingBalance))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Kind, "kind", "", "Entry kind: income or expense")
	f.Float64Var(&in.Amount, "amount", 0, "Amount, at least 1")
	f.StringVar(&in.Category, "category", "", "Category from the session list")
	f.StringVar(&in.Date, "date", "", "Date as YYYY-MM-DD (default today)")
	f.StringVar(&in.Time, "time", "", "Time as HH:MM (default now)")
	f.StringVar(&in.Description, "description", "", "Free text description")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newReportCmd() *cobra.Command {
	var (
		year, month int
		output      string
	)
	now := time.Now()

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the monthly PDF report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pdf, err := appFrom(cmd).Service.Report(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			if output == "" {
				output = report.Filename(year, month)
			}
			if err := writeOutput(cmd, output, pdf); err != nil {
				return err
			}
			cmd.PrintErrf("Report for %04d-%02d written to %s\n", year, month, output)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", now.Year(), "Report year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "Report month (1-12)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default monthly_YYYY_MM.pdf)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as CSV or Excel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := appFrom(cmd).Service
			write, name := svc.ExportCSV, export.CSVFilename
			switch strings.ToLower(format) {
			case "csv":
			case "xlsx":
				write, name = svc.ExportXLSX, export.XLSXFilename
			default:
				return fmt.Errorf("unsupported export format %q, want csv or xlsx", format)
			}
			var buf bytes.Buffer
			if err := write(cmd.Context(), &buf); err != nil {
				return err
			}
			if output == "" {
				output = name
			}
			if err := writeOutput(cmd, output, buf.Bytes()); err != nil {
				return err
			}
			cmd.PrintErrf("Ledger exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Replace the ledger with the rows of a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			n, err := appFrom(cmd).Service.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			cmd.Printf("Imported %d rows from %s\n", n, args[0])
			return nil
		},
	}
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
