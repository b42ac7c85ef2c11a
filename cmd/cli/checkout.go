package main

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

// Replaced in tests.
var (
	openURL   = browser.OpenURL
	promptOTP = func() (string, error) {
		prompt := promptui.Prompt{
			Label: "Orange Money authorization code",
			Mask:  '*',
			Validate: func(input string) error {
				if input == "" || strings.IndexFunc(input, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
					return errors.New("the code must be digits only")
				}
				return nil
			},
		}
		return prompt.Run()
	}
)

type checkoutFlags struct {
	amount      int64
	currency    string
	description string
	txnID       string
	firstName   string
	lastName    string
	phone       string
	email       string
	successURL  string
	failureURL  string
}

func (f *checkoutFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int64Var(&f.amount, "amount", 0, "amount in minor units")
	flags.StringVar(&f.currency, "currency", string(payment.CurrencyXOF), "currency code")
	flags.StringVar(&f.description, "description", "", "payment description")
	flags.StringVar(&f.txnID, "txn", "", "transaction id, generated when empty")
	flags.StringVar(&f.firstName, "first-name", "", "customer first name")
	flags.StringVar(&f.lastName, "last-name", "", "customer last name")
	flags.StringVar(&f.phone, "phone", "", "customer phone number")
	flags.StringVar(&f.email, "email", "", "customer email")
	flags.StringVar(&f.successURL, "success-url", "", "redirect after a successful payment")
	flags.StringVar(&f.failureURL, "failure-url", "", "redirect after a failed payment")
	_ = cmd.MarkFlagRequired("amount")
}

func (f *checkoutFlags) options() (payment.CheckoutOptions, error) {
	if f.amount <= 0 {
		return payment.CheckoutOptions{}, fmt.Errorf("--amount must be positive, got %d", f.amount)
	}
	txnID := f.txnID
	if txnID == "" {
		txnID = uuid.NewString()
	}
	return payment.CheckoutOptions{
		Amount:        f.amount,
		Currency:      payment.Currency(strings.ToUpper(f.currency)),
		Description:   f.description,
		TransactionID: txnID,
		Customer: payment.Customer{
			FirstName:   f.firstName,
			LastName:    f.lastName,
			PhoneNumber: f.phone,
			Email:       f.email,
		},
		SuccessRedirectURL: f.successURL,
		FailureRedirectURL: f.failureURL,
	}, nil
}

func newCheckoutCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Start a checkout on the first provider that supports it",
	}
	cmd.AddCommand(newWaveCmd(s))
	cmd.AddCommand(newOrangeMoneyCmd(s))
	cmd.AddCommand(newCardCmd(s))
	cmd.AddCommand(newRedirectCmd(s))
	return cmd
}

func newWaveCmd(s *session) *cobra.Command {
	var f checkoutFlags
	cmd := &cobra.Command{
		Use:   "wave",
		Short: "Start a Wave checkout",
		Long: `Start a Wave checkout and print the result.

Example:
  africapay checkout wave --amount 1500 --first-name Awa --phone +221771234567`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			result, err := s.payments.CheckoutMobileMoney(cmd.Context(), &payment.WaveCheckout{CheckoutOptions: opts})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newOrangeMoneyCmd(s *session) *cobra.Command {
	var (
		f         checkoutFlags
		otp       string
		promptFor bool
	)
	cmd := &cobra.Command{
		Use:   "orange-money",
		Short: "Start an Orange Money checkout",
		Long: `Start an Orange Money checkout. Without an authorization code the
QR-code flow is used.

Example:
  africapay checkout orange-money --amount 1500 --first-name Awa --phone +221771234567 --prompt-otp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			if promptFor && otp == "" {
				if otp, err = promptOTP(); err != nil {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
			}
			result, err := s.payments.CheckoutMobileMoney(cmd.Context(), &payment.OrangeMoneyCheckout{
				CheckoutOptions:   opts,
				AuthorizationCode: otp,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&otp, "otp", "", "authorization code for the OTP flow")
	cmd.Flags().BoolVar(&promptFor, "prompt-otp", false, "prompt for the authorization code")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newCardCmd(s *session) *cobra.Command {
	var (
		f    checkoutFlags
		card payment.Card
	)
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Start a credit card checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			result, err := s.payments.CheckoutCreditCard(cmd.Context(), &payment.CreditCardCheckout{
				CheckoutOptions: opts,
				Card:            card,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&card.Number, "card-number", "", "card number")
	cmd.Flags().StringVar(&card.ExpirationMonth, "exp-month", "", "expiration month (MM)")
	cmd.Flags().StringVar(&card.ExpirationYear, "exp-year", "", "expiration year (YYYY)")
	cmd.Flags().StringVar(&card.CVV, "cvv", "", "card verification value")
	_ = cmd.MarkFlagRequired("card-number")
	return cmd
}

func newRedirectCmd(s *session) *cobra.Command {
	var (
		f      checkoutFlags
		method string
		open   bool
	)
	cmd := &cobra.Command{
		Use:   "redirect",
		Short: "Create a hosted checkout page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			result, err := s.payments.CheckoutRedirect(cmd.Context(), &payment.RedirectCheckout{
				CheckoutOptions: opts,
				PaymentMethod:   payment.PaymentMethod(strings.ToUpper(method)),
			})
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if open && result.RedirectURL != "" {
				return openURL(result.RedirectURL)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&method, "method", "", "restrict the page to WAVE, ORANGE_MONEY or CREDIT_CARD")
	cmd.Flags().BoolVar(&open, "open", false, "open the checkout page in a browser")
	return cmd
}
