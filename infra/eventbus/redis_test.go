package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/africapayments/pkg/config"
	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/amirasaad/africapayments/pkg/testutils"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisBusHandlerReceivesEvent(t *testing.T) {
	endpoint := testutils.StartContainer(t, "redis:7.0.5", "6379/tcp", wait.ForLog("Ready to accept connections"))

	bus, err := NewWithRedis(&config.Redis{URL: "redis://" + endpoint, Stream: "test:events"},
		testutils.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	received := make(chan payment.Event, 1)
	bus.Register(payment.EventPaymentSuccessful, func(_ context.Context, e payment.Event) error {
		received <- e
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), successful("txn-redis")))

	select {
	case e := <-received:
		require.Equal(t, "txn-redis", e.TransactionID)
		require.Equal(t, "paydunya", e.PaymentProvider)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNATSBusHandlerReceivesEvent(t *testing.T) {
	endpoint := testutils.StartContainer(t, "nats:2.10", "4222/tcp", wait.ForLog("Server is ready"))

	bus, err := NewWithNATS(&config.NATS{URL: "nats://" + endpoint, SubjectPrefix: "test"},
		testutils.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	received := make(chan payment.Event, 1)
	bus.Register(payment.EventPaymentSuccessful, func(_ context.Context, e payment.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, bus.conn.Flush())

	require.NoError(t, bus.Emit(context.Background(), successful("txn-nats")))

	select {
	case e := <-received:
		require.Equal(t, "txn-nats", e.TransactionID)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBrokerConstructorsRejectMissingConfig(t *testing.T) {
	_, err := NewWithRedis(nil, nil)
	require.Error(t, err)
	_, err = NewWithKafka(&config.Kafka{}, nil)
	require.Error(t, err)
	_, err = NewWithNATS(&config.NATS{}, nil)
	require.Error(t, err)
}
