package paydunya

import (
	"context"
	"maps"

	"github.com/amirasaad/africapayments/pkg/phone"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// CheckoutMobileMoney creates an invoice and dispatches it to the Wave or
// Orange Money softpay channel.
func (p *Provider) CheckoutMobileMoney(
	ctx context.Context,
	opts payment.MobileMoneyCheckout,
) (*payment.CheckoutResult, error) {
	if opts == nil {
		return nil, payment.NewError("missing checkout options", payment.ErrorUnknown)
	}
	return p.checkout(ctx, opts)
}

// CheckoutCreditCard creates a card-only invoice and returns its hosted
// checkout page. Card fields are never sent to Paydunya.
func (p *Provider) CheckoutCreditCard(
	ctx context.Context,
	opts *payment.CreditCardCheckout,
) (*payment.CheckoutResult, error) {
	if opts == nil {
		return nil, payment.NewError("missing checkout options", payment.ErrorUnknown)
	}
	return p.checkout(ctx, opts)
}

// CheckoutRedirect is not offered by Paydunya.
func (p *Provider) CheckoutRedirect(
	context.Context,
	*payment.RedirectCheckout,
) (*payment.CheckoutResult, error) {
	return nil, p.Unsupported("redirect checkout")
}

func (p *Provider) checkout(ctx context.Context, c payment.Checkout) (*payment.CheckoutResult, error) {
	opts := c.Options()
	method := c.Method()
	log := p.Logger().With(
		"handler", "paydunya.Checkout",
		"transaction_id", opts.TransactionID,
		"payment_method", method,
	)

	if opts.Currency != payment.CurrencyXOF {
		return nil, payment.Errorf(payment.ErrorUnsupportedPaymentMethod,
			"Paydunya does not support the currency: %s", opts.Currency)
	}

	var customerPhone phone.Number
	if method.IsMobileMoney() {
		parsed, err := p.validatePhone(opts.Customer.PhoneNumber)
		if err != nil {
			log.Warn("rejected customer phone number", "error", err)
			return nil, err
		}
		customerPhone = parsed
	}

	token, hostedURL, err := p.createInvoice(ctx, opts, method)
	if err != nil {
		log.Error("failed to create invoice", "error", err)
		return nil, err
	}
	log = log.With("invoice_token", token)

	var redirectURL string
	switch co := c.(type) {
	case *payment.WaveCheckout:
		redirectURL, err = p.payWithWave(ctx, opts, customerPhone, token)
	case *payment.OrangeMoneyCheckout:
		redirectURL, err = p.payWithOrangeMoney(ctx, opts, co.AuthorizationCode, customerPhone, token)
	case *payment.CreditCardCheckout:
		redirectURL = hostedURL
	default:
		err = p.Unsupported(string(method))
	}
	if err != nil {
		log.Error("failed to dispatch invoice", "error", err)
		return nil, err
	}

	result := &payment.CheckoutResult{
		TransactionID:        opts.TransactionID,
		TransactionReference: token,
		TransactionStatus:    payment.StatusPending,
		TransactionAmount:    opts.Amount,
		TransactionCurrency:  opts.Currency,
		RedirectURL:          redirectURL,
		PaymentProvider:      p.Name(),
	}
	if redirectURL == "" {
		log.Info("checkout initiated without redirect url")
	}

	p.Emit(ctx, payment.NewInitiated(payment.EventDetails{
		TransactionID:        result.TransactionID,
		TransactionReference: result.TransactionReference,
		TransactionAmount:    result.TransactionAmount,
		TransactionCurrency:  result.TransactionCurrency,
		PaymentMethod:        method,
		Metadata:             opts.Metadata,
	}, redirectURL))

	log.Info("checkout initiated", "redirect_url", redirectURL)
	return result, nil
}

// createInvoice returns the invoice token and the hosted checkout URL.
func (p *Provider) createInvoice(
	ctx context.Context,
	opts *payment.CheckoutOptions,
	method payment.PaymentMethod,
) (string, string, error) {
	customData := make(map[string]any, len(opts.Metadata)+1)
	maps.Copy(customData, opts.Metadata)
	customData["transaction_id"] = opts.TransactionID

	req := createInvoiceRequest{
		Invoice: invoiceDetails{
			TotalAmount: opts.Amount,
			Description: opts.Description,
		},
		Store:      store{Name: p.cfg.StoreName},
		CustomData: customData,
		Actions: actions{
			CancelURL: opts.FailureRedirectURL,
			ReturnURL: opts.SuccessRedirectURL,
		},
	}
	if method == payment.MethodCreditCard {
		req.Channels = []string{"card"}
	}

	var resp createInvoiceResponse
	if err := p.post(ctx, pathCreateInvoice, req, &resp); err != nil {
		return "", "", err
	}
	if resp.ResponseCode != responseCodeSuccess {
		return "", "", payment.Errorf(payment.ErrorUnknown, "Paydunya error: %s", resp.ResponseText)
	}
	if resp.Token == "" {
		return "", "", payment.Errorf(payment.ErrorUnknown,
			"Missing invoice token in Paydunya response: %s", resp.ResponseText)
	}
	return resp.Token, resp.ResponseText, nil
}

func (p *Provider) payWithWave(
	ctx context.Context,
	opts *payment.CheckoutOptions,
	customerPhone phone.Number,
	token string,
) (string, error) {
	req := waveRequest{
		FullName:     opts.Customer.FullName(),
		Email:        customerEmail(opts.Customer),
		Phone:        customerPhone.National,
		PaymentToken: token,
	}
	var resp softpayResponse
	if err := p.post(ctx, pathWave, req, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", payment.Errorf(payment.ErrorUnknown, "Paydunya error: %s", resp.Message)
	}
	if resp.URL == "" {
		return "", payment.Errorf(payment.ErrorUnknown,
			"Missing wave payment url in Paydunya response: %s", resp.Message)
	}
	return resp.URL, nil
}

// payWithOrangeMoney uses the OTP flow when authorizationCode is set and the
// QR code flow otherwise. The QR code flow may return no URL.
func (p *Provider) payWithOrangeMoney(
	ctx context.Context,
	opts *payment.CheckoutOptions,
	authorizationCode string,
	customerPhone phone.Number,
	token string,
) (string, error) {
	req := orangeMoneyRequest{
		CustomerName:  opts.Customer.FullName(),
		CustomerEmail: customerEmail(opts.Customer),
		PhoneNumber:   customerPhone.National,
		InvoiceToken:  token,
		APIType:       apiTypeQRCode,
	}
	if authorizationCode != "" {
		req.AuthorizationCode = authorizationCode
		req.APIType = apiTypeOTP
	}

	var resp softpayResponse
	if err := p.post(ctx, pathOrangeMoney, req, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", payment.Errorf(payment.ErrorUnknown, "Paydunya error: %s", resp.Message)
	}
	return resp.URL, nil
}

// customerEmail falls back to an address derived from the phone number, as
// Paydunya requires one for softpay channels.
func customerEmail(c payment.Customer) string {
	if c.Email != "" {
		return c.Email
	}
	return c.PhoneNumber + "@yopmail.com"
}
