package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var received = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scango_webhooks_received_total",
	Help: "Platform webhooks by topic and result",
}, []string{"topic", "result"})

// topicLabel bounds label cardinality; topics arrive before the signature is checked.
func topicLabel(topic string) string {
	switch topic {
	case TopicOrdersPaid, TopicAppUninstalled:
		return topic
	default:
		return "other"
	}
}
