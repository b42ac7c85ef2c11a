package app

import (
	"context"
	"log/slog"

	"github.com/amirasaad/africapayments/pkg/eventbus"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// setupEventBus registers the audit listeners on the orchestrator.
func (a *App) setupEventBus() {
	if a.Deps.Payments == nil {
		return
	}
	for _, t := range payment.EventTypes {
		a.Deps.Payments.On(t, HandleAuditLog(a.Deps.Logger))
	}
}

// HandleAuditLog logs every lifecycle event. Failures and cancellations are
// logged as warnings.
func HandleAuditLog(logger *slog.Logger) eventbus.HandlerFunc {
	log := logger.With("handler", "AuditLog")
	return func(ctx context.Context, e payment.Event) error {
		level := slog.LevelInfo
		if e.Type == payment.EventPaymentFailed || e.Type == payment.EventPaymentCancelled {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "📨 Payment event",
			"event_type", e.Type,
			"provider", e.PaymentProvider,
			"transaction_id", e.TransactionID,
			"reference", e.TransactionReference,
			"amount", e.TransactionAmount,
			"currency", e.TransactionCurrency,
			"reason", e.Reason,
		)
		return nil
	}
}
