package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// envelope is the wire form shared by every broker forwarder.
type envelope struct {
	Type       payment.EventType `json:"type"`
	Provider   string            `json:"provider,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
	Payload    json.RawMessage   `json:"payload"`
}

func buildEnvelope(event payment.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	env := envelope{
		Type:       event.Type,
		Provider:   event.PaymentProvider,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

func decodeEnvelope(data []byte) (payment.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return payment.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	var event payment.Event
	if err := json.Unmarshal(env.Payload, &event); err != nil {
		return payment.Event{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return event, nil
}
