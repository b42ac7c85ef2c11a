package paydunya

import (
	"context"
	"net/url"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// Refund reverses a paid invoice. The amount defaults to the invoice total
// and the money goes back to the wallet that paid it.
func (p *Provider) Refund(ctx context.Context, opts *payment.RefundOptions) (*payment.RefundResult, error) {
	if opts == nil {
		return nil, payment.NewError("missing refund options", payment.ErrorUnknown)
	}
	log := p.Logger().With(
		"handler", "paydunya.Refund",
		"transaction_id", opts.TransactionID,
		"refunded_reference", opts.RefundedTransactionReference,
	)
	if opts.RefundedAmount < 0 {
		return nil, payment.InvalidAmount("refund amount must not be negative, got %d", opts.RefundedAmount)
	}

	status, err := p.confirmInvoice(ctx, opts.RefundedTransactionReference)
	if err != nil {
		log.Error("failed to fetch invoice to refund", "error", err)
		return nil, err
	}

	total := int64(status.Invoice.TotalAmount)
	amount := opts.RefundedAmount
	if amount == 0 {
		amount = total
	}
	if amount <= 0 || amount > total {
		log.Warn("refund amount rejected", "amount", amount, "invoice_total", total)
		return nil, payment.InvalidAmount("refund amount %d is outside the invoice total %d", amount, total)
	}

	token, err := p.disburse(ctx, disburseInvoiceRequest{
		AccountAlias: status.Customer.Phone,
		Amount:       amount,
		WithdrawMode: withdrawMode(status.Customer.PaymentMethod),
	}, opts.TransactionID)
	if err != nil {
		log.Error("refund disbursement failed", "error", err)
		return nil, err
	}

	log.Info("refund disbursed", "disburse_token", token, "amount", amount)
	return &payment.RefundResult{
		TransactionID:        opts.TransactionID,
		TransactionReference: token,
		TransactionStatus:    payment.StatusSuccess,
		TransactionAmount:    amount,
		TransactionCurrency:  payment.CurrencyXOF,
		PaymentProvider:      p.Name(),
	}, nil
}

// PayoutMobileMoney sends money to a Wave or Orange Money wallet.
func (p *Provider) PayoutMobileMoney(
	ctx context.Context,
	opts *payment.MobileMoneyPayout,
) (*payment.PayoutResult, error) {
	if opts == nil {
		return nil, payment.NewError("missing payout options", payment.ErrorUnknown)
	}
	log := p.Logger().With(
		"handler", "paydunya.Payout",
		"transaction_id", opts.TransactionID,
		"payment_method", opts.PaymentMethod,
	)

	if opts.Currency != payment.CurrencyXOF {
		return nil, payment.Errorf(payment.ErrorUnsupportedPaymentMethod,
			"Paydunya does not support the currency: %s", opts.Currency)
	}
	mode, ok := withdrawModes[opts.PaymentMethod]
	if !ok {
		return nil, payment.Errorf(payment.ErrorUnsupportedPaymentMethod,
			"Paydunya does not support payouts with %s", opts.PaymentMethod)
	}
	if opts.Amount <= 0 {
		return nil, payment.InvalidAmount("payout amount must be positive, got %d", opts.Amount)
	}
	recipient, err := p.validatePhone(opts.Recipient.PhoneNumber)
	if err != nil {
		return nil, err
	}

	token, err := p.disburse(ctx, disburseInvoiceRequest{
		AccountAlias: recipient.National,
		Amount:       opts.Amount,
		WithdrawMode: mode,
	}, opts.TransactionID)
	if err != nil {
		log.Error("payout disbursement failed", "error", err)
		return nil, err
	}

	log.Info("payout disbursed", "disburse_token", token)
	return &payment.PayoutResult{
		TransactionID:        opts.TransactionID,
		TransactionReference: token,
		TransactionStatus:    payment.StatusSuccess,
		TransactionAmount:    opts.Amount,
		TransactionCurrency:  opts.Currency,
		PaymentProvider:      p.Name(),
	}, nil
}

// confirmInvoice fetches the recorded state of an invoice.
func (p *Provider) confirmInvoice(ctx context.Context, token string) (*invoiceStatus, error) {
	var resp invoiceStatus
	if err := p.get(ctx, pathConfirmInvoice+url.PathEscape(token), &resp); err != nil {
		return nil, err
	}
	if resp.ResponseCode != responseCodeSuccess {
		return nil, payment.Errorf(payment.ErrorUnknown, "Paydunya error: %s", resp.ResponseText)
	}
	if resp.Invoice == nil {
		return nil, payment.Errorf(payment.ErrorUnknown,
			"Missing invoice in Paydunya response: %s", resp.ResponseText)
	}
	return &resp, nil
}

// disburse runs both disbursement phases and returns the disburse token.
// Neither phase is retried; a failed submit leaves an unsubmitted disburse
// invoice behind and the caller must retry with a new correlation id.
func (p *Provider) disburse(ctx context.Context, req disburseInvoiceRequest, disburseID string) (string, error) {
	var created disburseInvoiceResponse
	if err := p.post(ctx, pathDisburseCreate, req, &created); err != nil {
		return "", err
	}
	if created.ResponseCode != responseCodeSuccess {
		return "", payment.Errorf(payment.ErrorUnknown, "Paydunya error: %s", created.ResponseText)
	}
	if created.DisburseToken == "" {
		return "", payment.Errorf(payment.ErrorUnknown,
			"Missing disburse token in Paydunya response: %s", created.ResponseText)
	}

	var submitted submitDisburseResponse
	if err := p.post(ctx, pathDisburseSubmit, submitDisburseRequest{
		DisburseInvoice: created.DisburseToken,
		DisburseID:      disburseID,
	}, &submitted); err != nil {
		return "", err
	}
	if submitted.ResponseCode != responseCodeSuccess {
		return "", payment.Errorf(payment.ErrorUnknown, "Paydunya error: %s", submitted.ResponseText)
	}
	return created.DisburseToken, nil
}
