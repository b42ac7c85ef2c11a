package eventbus

import (
	"fmt"
	"strings"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
)

// topicNameFor returns the Kafka topic for the event type.
func topicNameFor(prefix string, eventType payment.EventType) string {
	return nameFor(prefix, ".", eventType)
}

// subjectFor returns the NATS subject for the event type.
func subjectFor(prefix string, eventType payment.EventType) string {
	return nameFor(prefix, ".", eventType)
}

// dlqStreamName returns the Redis dead letter stream for stream.
func dlqStreamName(stream string) string {
	return stream + ":dlq"
}

func nameFor(prefix, sep string, eventType payment.EventType) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "africapayments"
	}
	return fmt.Sprintf("%s%sevents%s%s", prefix, sep, sep, strings.ToLower(eventType.String()))
}
