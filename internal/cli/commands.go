package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/savemymoney/savemymoney-backend/internal/aggregate"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/service"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's document as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(store domain.LedgerStore) error {
				doc, err := service.NewMutationBridge(store).Load(cmd.Context(), opts.userID)
				if err != nil {
					return fmt.Errorf("failed to load document: %w", err)
				}
				data, err := service.EncodeExport(doc)
				if err != nil {
					return err
				}

				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o600); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", opts.userID, output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import [json-file]",
		Short: "Replace a user's document with an exported JSON file",
		Long:  `Replace a user's document with an exported JSON file. Use "-" to read from stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := service.ParseImport(payload)
			if err != nil {
				return err
			}

			return opts.withStore(cmd.Context(), func(store domain.LedgerStore) error {
				if err := service.NewMutationBridge(store).Save(cmd.Context(), opts.userID, doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d budget months and %d transaction months for %s\n",
					len(doc.Budgets), len(doc.Transactions), opts.userID)
				return nil
			})
		},
	}
}

func newResetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace a user's document with an empty one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(store domain.LedgerStore) error {
				if err := service.NewMutationBridge(store).Save(cmd.Context(), opts.userID, &domain.FinanceDocument{}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Reset document of %s\n", opts.userID)
				return nil
			})
		},
	}
}

func newSummaryCmd(opts *options) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the totals and budgets of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := domain.CurrentMonthKey(opts.now())
			if month != "" {
				parsed, err := domain.ParseMonthKey(month)
				if err != nil {
					return err
				}
				key = parsed
			}

			return opts.withStore(cmd.Context(), func(store domain.LedgerStore) error {
				doc, err := service.NewMutationBridge(store).Load(cmd.Context(), opts.userID)
				if errors.Is(err, domain.ErrDocumentNotFound) {
					doc = domain.NewFinanceDocument()
				} else if err != nil {
					return fmt.Errorf("failed to load document: %w", err)
				}

				view := aggregate.BuildMonthView(doc, key, aggregate.Filter{}, opts.now())
				writeSummary(cmd.OutOrStdout(), view)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to summarize (format: YYYY-MM, default current month)")
	return cmd
}

func writeSummary(w io.Writer, view aggregate.MonthView) {
	amount := func(v int64) string {
		return aggregate.FormatAmount(v, aggregate.DisplayLanguage)
	}

	fmt.Fprintf(w, "Month:     %s (%d days left)\n", view.Month, view.RemainingDays)
	fmt.Fprintf(w, "Income:    %s\n", amount(view.Summary.TotalIncome))
	fmt.Fprintf(w, "Spending:  %s\n", amount(view.Summary.TotalSpending))
	fmt.Fprintf(w, "Net:       %s\n", amount(view.Summary.Net))

	if len(view.Budgets) > 0 {
		fmt.Fprintln(w, "Budgets:")
		for _, b := range view.Budgets {
			fmt.Fprintf(w, "  %s %s  %s / %s\n", b.Icon, b.Category, amount(b.Spent), amount(b.Limit))
		}
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
