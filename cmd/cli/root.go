package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/amirasaad/africapayments/infra/initializer"
	"github.com/amirasaad/africapayments/pkg/app"
	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/spf13/cobra"
)

// Payments is the orchestrator surface used by the commands.
type Payments interface {
	Providers() []string
	CheckoutMobileMoney(ctx context.Context, opts payment.MobileMoneyCheckout) (*payment.CheckoutResult, error)
	CheckoutCreditCard(ctx context.Context, opts *payment.CreditCardCheckout) (*payment.CheckoutResult, error)
	CheckoutRedirect(ctx context.Context, opts *payment.RedirectCheckout) (*payment.CheckoutResult, error)
	PayoutMobileMoney(ctx context.Context, opts *payment.MobileMoneyPayout) (*payment.PayoutResult, error)
	Refund(ctx context.Context, opts *payment.RefundOptions) (*payment.RefundResult, error)
	Callback(
		ctx context.Context,
		providerName, correlationID string,
		interval time.Duration,
		maxAttempts int,
	) (*payment.StatusSnapshot, error)
}

// loader builds the orchestrator from an env file. The returned closer
// releases broker connections.
type loader func(envFile string) (Payments, io.Closer, error)

func loadPayments(envFile string) (Payments, io.Closer, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load application configuration: %w", err)
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	a := app.New(deps, cfg)
	return deps.Payments, a, nil
}

type session struct {
	load     loader
	envFile  string
	payments Payments
	closer   io.Closer
}

func (s *session) open() error {
	if s.payments != nil {
		return nil
	}
	p, c, err := s.load(s.envFile)
	if err != nil {
		return err
	}
	s.payments, s.closer = p, c
	return nil
}

func (s *session) close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func newRootCmd(load loader) *cobra.Command {
	s := &session{load: load}
	root := &cobra.Command{
		Use:               "africapay",
		Short:             "Drive the Africa Payments orchestrator from the command line",
		Long:              `Start checkouts, payouts and refunds and poll transaction status against the configured payment providers.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close()
		},
	}
	root.PersistentFlags().StringVar(&s.envFile, "env-file", ".env", "environment file to load")

	root.AddCommand(&cobra.Command{
		Use:   "providers",
		Short: "List the configured providers in fallback order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), s.payments.Providers())
		},
	})
	root.AddCommand(newCheckoutCmd(s))
	root.AddCommand(newPayoutCmd(s))
	root.AddCommand(newRefundCmd(s))
	root.AddCommand(newStatusCmd(s))
	return root
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
