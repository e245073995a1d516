package main

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	report := &cobra.Command{
		Use:   "report",
		Short: "Fold posted ledger history into reports",
	}
	report.AddCommand(
		newIncomeStatementCmd(a),
		newCostCentersCmd(a),
		newTrialBalanceCmd(a),
	)
	return report
}

func newIncomeStatementCmd(a *app) *cobra.Command {
	var from, to, costCenter, profitCenter string
	cmd := &cobra.Command{
		Use:   "income-statement",
		Short: "Revenue, cost of goods sold and expenses for a period",
		Example: `  bookkeeping report income-statement --from 2026-01-01 --to 2026-03-31
  bookkeeping report income-statement --from 2026-01-01 --to 2026-12-31 --cost-center CC-10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate("from", from)
			if err != nil {
				return err
			}
			end, err := parseDate("to", to)
			if err != nil {
				return err
			}
			req := dto.IncomeStatementRequest{
				Start:          start,
				End:            end,
				CostCenterID:   optional(costCenter),
				ProfitCenterID: optional(profitCenter),
			}
			return a.run(cmd, "report.income_statement", func(ctx context.Context) (any, error) {
				return a.services.Reporting.IncomeStatement(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day of the period, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&costCenter, "cost-center", "", "Only lines tagged to this cost center")
	cmd.Flags().StringVar(&profitCenter, "profit-center", "", "Only lines tagged to this profit center")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newCostCentersCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "cost-centers",
		Short: "Actual spend per cost center against budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate("from", from)
			if err != nil {
				return err
			}
			end, err := parseDate("to", to)
			if err != nil {
				return err
			}
			return a.run(cmd, "report.cost_centers", func(ctx context.Context) (any, error) {
				return a.services.Reporting.CostCenterPerformance(ctx, start, end)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day of the period, inclusive (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newTrialBalanceCmd(a *app) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Debit and credit totals per account",
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now().UTC()
			if asOf != "" {
				var err error
				if date, err = parseDate("as-of", asOf); err != nil {
					return err
				}
			}
			return a.run(cmd, "report.trial_balance", func(ctx context.Context) (any, error) {
				return a.services.Reporting.TrialBalance(ctx, date)
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Include postings up to the end of this day (default: today)")
	return cmd
}
