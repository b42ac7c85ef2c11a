package taarih

import (
	"context"
	"net/http"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// CheckoutMobileMoney signs in, optionally pre-authorizes against the
// configured bank account and creates a POS payment.
func (p *Provider) CheckoutMobileMoney(
	ctx context.Context,
	opts payment.MobileMoneyCheckout,
) (*payment.CheckoutResult, error) {
	if opts == nil {
		return nil, payment.NewError("missing checkout options", payment.ErrorUnknown)
	}
	co := opts.Options()
	method := opts.Method()
	log := p.Logger().With(
		"handler", "taarih.Checkout",
		"transaction_id", co.TransactionID,
		"payment_method", method,
	)

	if co.Currency != payment.CurrencyXOF {
		return nil, payment.Errorf(payment.ErrorUnsupportedPaymentMethod,
			"Taarih does not support the currency: %s", co.Currency)
	}
	operationCode, ok := operationCodes[method]
	if !ok {
		return nil, payment.Errorf(payment.ErrorInvalidOperationCode,
			"No Taarih operation code for payment method: %s", method)
	}
	customerPhone := p.phones.Parse(co.Customer.PhoneNumber, Region)
	if !customerPhone.Valid {
		return nil, payment.Errorf(payment.ErrorInvalidPhoneNumber,
			"Invalid phone number: %s", co.Customer.PhoneNumber)
	}
	if !customerPhone.Possible {
		return nil, payment.Errorf(payment.ErrorInvalidPhoneNumber,
			"Phone number is not possible: %s", co.Customer.PhoneNumber)
	}

	s, err := p.login(ctx)
	if err != nil {
		log.Error("sign in failed", "error", err)
		return nil, err
	}

	if p.cfg.PreAuthBankAccountID != "" {
		var preAuth preAuthResponse
		if err := p.call(ctx, s, http.MethodPost, pathPreAuth, preAuthRequest{
			CompanyID:     s.LegalEntityID,
			Amount:        co.Amount,
			BankAccountID: p.cfg.PreAuthBankAccountID,
			PaymentMethod: paymentMethods[method],
			OperationCode: operationCode,
			Currency:      string(co.Currency),
		}, &preAuth); err != nil {
			log.Error("pre-authorization failed", "error", err)
			return nil, err
		}
		log.Debug("pre-authorized", "total_amount", preAuth.TotalAmount, "fees", preAuth.Fees)
	}

	var pos posPaymentResponse
	if err := p.call(ctx, s, http.MethodPost, pathPosPayment, posPaymentRequest{
		CompanyID:     s.LegalEntityID,
		Amount:        co.Amount,
		CountryCode:   p.cfg.CallingCode,
		MobileNumber:  customerPhone.National,
		PaymentMethod: paymentMethods[method],
		OperationCode: operationCode,
		FirstName:     co.Customer.FirstName,
		LastName:      co.Customer.LastName,
		Currency:      string(co.Currency),
		ExternalID:    co.TransactionID,
	}, &pos); err != nil {
		log.Error("payment creation failed", "error", err)
		return nil, err
	}
	if pos.ExternalID == "" || pos.InternalID == "" || pos.PaymentLink == "" {
		return nil, payment.NewError("Taarih error: response data is not valid", payment.ErrorUnknown)
	}

	result := &payment.CheckoutResult{
		TransactionID:        co.TransactionID,
		TransactionReference: pos.InternalID,
		TransactionStatus:    payment.StatusPending,
		TransactionAmount:    co.Amount,
		TransactionCurrency:  co.Currency,
		RedirectURL:          pos.PaymentLink,
		PaymentProvider:      p.Name(),
	}
	if result.TransactionID == "" {
		result.TransactionID = pos.ExternalID
	}

	p.Emit(ctx, payment.NewInitiated(payment.EventDetails{
		TransactionID:        result.TransactionID,
		TransactionReference: result.TransactionReference,
		TransactionAmount:    result.TransactionAmount,
		TransactionCurrency:  result.TransactionCurrency,
		PaymentMethod:        method,
		Metadata:             co.Metadata,
	}, result.RedirectURL))

	log.Info("checkout initiated", "internal_id", pos.InternalID, "external_id", pos.ExternalID)
	return result, nil
}

// CheckoutCreditCard is not offered by Taarih.
func (p *Provider) CheckoutCreditCard(
	context.Context,
	*payment.CreditCardCheckout,
) (*payment.CheckoutResult, error) {
	return nil, p.Unsupported("credit card checkout")
}

// CheckoutRedirect is not offered by Taarih.
func (p *Provider) CheckoutRedirect(
	context.Context,
	*payment.RedirectCheckout,
) (*payment.CheckoutResult, error) {
	return nil, p.Unsupported("redirect checkout")
}

// PayoutMobileMoney is not offered by Taarih.
func (p *Provider) PayoutMobileMoney(
	context.Context,
	*payment.MobileMoneyPayout,
) (*payment.PayoutResult, error) {
	return nil, p.Unsupported("payouts")
}

// Refund is not offered by Taarih.
func (p *Provider) Refund(context.Context, *payment.RefundOptions) (*payment.RefundResult, error) {
	return nil, p.Unsupported("refunds")
}
