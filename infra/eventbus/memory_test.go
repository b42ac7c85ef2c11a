package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/amirasaad/africapayments/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successful(txn string) payment.Event {
	return payment.NewSuccessful(payment.EventDetails{
		TransactionID:        txn,
		TransactionReference: "ref-" + txn,
		TransactionAmount:    1000,
		TransactionCurrency:  payment.CurrencyXOF,
		PaymentMethod:        payment.MethodWave,
		PaymentProvider:      "paydunya",
	})
}

func TestMemoryEventBus_DispatchesByType(t *testing.T) {
	bus := NewWithMemory(testutils.DiscardLogger(), WithRecording())
	var got []string
	bus.Register(payment.EventPaymentSuccessful, func(_ context.Context, e payment.Event) error {
		got = append(got, "first:"+e.TransactionID)
		return nil
	})
	bus.Register(payment.EventPaymentSuccessful, func(_ context.Context, e payment.Event) error {
		got = append(got, "second:"+e.TransactionID)
		return nil
	})
	bus.Register(payment.EventPaymentFailed, func(context.Context, payment.Event) error {
		t.Fatal("failed handler must not run")
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), successful("txn-1")))
	assert.Equal(t, []string{"first:txn-1", "second:txn-1"}, got)
	assert.Len(t, bus.Published(), 1)

	bus.ClearPublished()
	assert.Empty(t, bus.Published())
}

func TestMemoryEventBus_IsolatesHandlerFailures(t *testing.T) {
	bus := NewWithMemory(testutils.DiscardLogger())
	calls := 0
	bus.Register(payment.EventPaymentSuccessful, func(context.Context, payment.Event) error {
		panic("boom")
	})
	bus.Register(payment.EventPaymentSuccessful, func(context.Context, payment.Event) error {
		calls++
		return errors.New("listener failed")
	})
	bus.Register(payment.EventPaymentSuccessful, func(context.Context, payment.Event) error {
		calls++
		return nil
	})

	assert.NoError(t, bus.Emit(context.Background(), successful("txn-1")))
	assert.Equal(t, 2, calls)
}

func TestMemoryEventBus_NoHandlers(t *testing.T) {
	bus := NewWithMemory(nil, WithRecording())
	assert.NoError(t, bus.Emit(context.Background(), successful("txn-1")))
	assert.Len(t, bus.Published(), 1)
}

func TestMemoryEventBus_DoesNotRecordByDefault(t *testing.T) {
	bus := NewWithMemory(testutils.DiscardLogger())
	var handled int
	bus.Register(payment.EventPaymentSuccessful, func(context.Context, payment.Event) error {
		handled++
		return nil
	})

	for i := 0; i < 1000; i++ {
		require.NoError(t, bus.Emit(context.Background(), successful("txn-1")))
	}
	assert.Equal(t, 1000, handled)
	assert.Empty(t, bus.Published())
}

type recordingPublisher struct {
	events []payment.Event
	err    error
}

func (p *recordingPublisher) Emit(_ context.Context, e payment.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func TestFanout(t *testing.T) {
	local := NewWithMemory(testutils.DiscardLogger())
	ok := &recordingPublisher{}
	broken := &recordingPublisher{err: errors.New("broker down")}
	bus := NewFanout(local, testutils.DiscardLogger(), broken, nil, ok)

	var handled int
	bus.Register(payment.EventPaymentSuccessful, func(context.Context, payment.Event) error {
		handled++
		return nil
	})

	err := bus.Emit(context.Background(), successful("txn-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, 1, handled)
	assert.Len(t, ok.events, 1)
	assert.Len(t, broken.events, 1)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	event := successful("txn-1")
	event.Metadata = map[string]any{"order": "42"}

	data, err := buildEnvelope(event)
	require.NoError(t, err)
	decoded, err := decodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)

	_, err = decodeEnvelope([]byte("nope"))
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "africapayments.events.payment_successful",
		topicNameFor("", payment.EventPaymentSuccessful))
	assert.Equal(t, "shop.events.payment_failed",
		subjectFor("shop", payment.EventPaymentFailed))
	assert.Equal(t, "payments:events:dlq", dlqStreamName("payments:events"))
	assert.Equal(t, []string{"a:9092", "b:9092", "c:9092"},
		parseBrokers([]string{"a:9092, b:9092", " ", "c:9092"}))
}
