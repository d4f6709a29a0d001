package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/pkg/utils"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Preview the installment schedule of a loan",
		Example: `  # 50000 at 20% over 6 monthly installments
  collectionctl schedule --principal 50000 --rate 0.20 --installments 6 --frequency MONTHLY --start 2024-01-15`,
		RunE: runSchedule,
	}
	cmd.Flags().String("principal", "", "Principal amount")
	cmd.Flags().String("rate", "0", "Flat interest rate as a fraction (0.20 is 20%)")
	cmd.Flags().Int("installments", 0, "Number of installments")
	cmd.Flags().String("frequency", string(domain.FrequencyMonthly), "DAILY, WEEKLY, BIWEEKLY or MONTHLY")
	cmd.Flags().String("start", "", "First due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("installments")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func runSchedule(cmd *cobra.Command, args []string) error {
	principalStr, _ := cmd.Flags().GetString("principal")
	rateStr, _ := cmd.Flags().GetString("rate")
	installments, _ := cmd.Flags().GetInt("installments")
	frequency, _ := cmd.Flags().GetString("frequency")
	startStr, _ := cmd.Flags().GetString("start")

	principal, err := decimal.NewFromString(principalStr)
	if err != nil {
		return fmt.Errorf("invalid principal %q: %w", principalStr, err)
	}
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", rateStr, err)
	}
	start, err := domain.ParseDate(startStr)
	if err != nil {
		return err
	}

	schedule, err := domain.GenerateSchedule(domain.ScheduleTerms{
		LoanID:            "preview",
		Principal:         principal,
		BaseInterestRate:  rate,
		TotalInstallments: installments,
		Frequency:         domain.PaymentFrequency(frequency),
		StartDate:         start,
	}, time.Now())
	if err != nil {
		return err
	}

	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(out, "#\tdue date\tprincipal\tinterest\tamount due\t")
	for _, inst := range schedule {
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\t\n",
			inst.PaymentNumber, inst.DueDate, inst.PrincipalPortion.StringFixed(2),
			inst.TotalAmountDue.Sub(inst.PrincipalPortion).StringFixed(2), inst.TotalAmountDue.StringFixed(2))
	}
	fmt.Fprintf(out, "\ttotal\t\t\t%s\t\n", utils.CalculateTotalAmount(principal, rate).StringFixed(2))
	return out.Flush()
}

func newCommissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "commission",
		Short:   "Compute a collector commission",
		Example: `  collectionctl commission --total 10000 --percentage 12.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			totalStr, _ := cmd.Flags().GetString("total")
			pctStr, _ := cmd.Flags().GetString("percentage")

			total, err := decimal.NewFromString(totalStr)
			if err != nil {
				return fmt.Errorf("invalid total %q: %w", totalStr, err)
			}
			pct, err := decimal.NewFromString(pctStr)
			if err != nil {
				return fmt.Errorf("invalid percentage %q: %w", pctStr, err)
			}

			commission, err := domain.CalculateCommission(total, pct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "commission: %s\nnet payable: %s\n",
				commission.StringFixed(2), total.Sub(commission).StringFixed(2))
			return nil
		},
	}
	cmd.Flags().String("total", "", "Net collected amount")
	cmd.Flags().String("percentage", "10", "Commission percentage between 0 and 100")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}
