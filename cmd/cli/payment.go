package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newPayoutCmd(s *session) *cobra.Command {
	var (
		p      payment.MobileMoneyPayout
		method string
	)
	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Send money to a mobile wallet",
		Long: `Send money to a Wave or Orange Money wallet. Payouts are not retried.

Example:
  africapay payout --method WAVE --amount 1000 --first-name Awa --phone +221771234567`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p.Amount <= 0 {
				return fmt.Errorf("--amount must be positive, got %d", p.Amount)
			}
			p.PaymentMethod = payment.PaymentMethod(strings.ToUpper(method))
			if !p.PaymentMethod.IsMobileMoney() {
				return fmt.Errorf("--method must be WAVE or ORANGE_MONEY, got %q", method)
			}
			p.Currency = payment.Currency(strings.ToUpper(string(p.Currency)))
			if p.TransactionID == "" {
				p.TransactionID = uuid.NewString()
			}
			result, err := s.payments.PayoutMobileMoney(cmd.Context(), &p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&method, "method", string(payment.MethodWave), "WAVE or ORANGE_MONEY")
	flags.Int64Var(&p.Amount, "amount", 0, "amount in minor units")
	flags.StringVar((*string)(&p.Currency), "currency", string(payment.CurrencyXOF), "currency code")
	flags.StringVar(&p.Recipient.FirstName, "first-name", "", "recipient first name")
	flags.StringVar(&p.Recipient.LastName, "last-name", "", "recipient last name")
	flags.StringVar(&p.Recipient.PhoneNumber, "phone", "", "recipient phone number")
	flags.StringVar(&p.Recipient.Email, "email", "", "recipient email")
	flags.StringVar(&p.TransactionID, "txn", "", "transaction id, generated when empty")
	flags.StringVar(&p.Description, "description", "", "payout description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newRefundCmd(s *session) *cobra.Command {
	var r payment.RefundOptions
	cmd := &cobra.Command{
		Use:   "refund <reference>",
		Short: "Refund a transaction on the provider that created it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r.RefundedTransactionReference = args[0]
			if r.TransactionID == "" {
				r.TransactionID = uuid.NewString()
			}
			result, err := s.payments.Refund(cmd.Context(), &r)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&r.ProviderName, "provider", "", "provider that created the transaction")
	cmd.Flags().Int64Var(&r.RefundedAmount, "amount", 0, "amount to refund, 0 for the full amount")
	cmd.Flags().StringVar(&r.TransactionID, "txn", "", "transaction id, generated when empty")
	return cmd
}

func newStatusCmd(s *session) *cobra.Command {
	var (
		providerName string
		interval     time.Duration
		maxAttempts  int
	)
	cmd := &cobra.Command{
		Use:   "status <reference>",
		Short: "Poll a transaction until it leaves PENDING",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := s.payments.Callback(cmd.Context(), providerName, args[0], interval, maxAttempts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snapshot)
		},
	}
	cmd.Flags().StringVar(&providerName, "provider", "", "provider that created the transaction")
	cmd.Flags().DurationVar(&interval, "interval", payment.DefaultPollInterval, "delay between attempts")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", payment.DefaultPollMaxAttempts, "maximum attempts")
	return cmd
}
