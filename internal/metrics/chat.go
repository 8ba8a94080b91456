package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat orchestrator Prometheus metrics.
var ChatTurnsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "vocd",
		Name:      "chat_turns_total",
		Help:      "Chat turns by terminal state",
	},
	[]string{"state"}, // "responded" / "failed" / "greeting" / "rejected"
)

var chatMetricsRegistered bool

// RegisterChatMetrics registers chat metrics. Must be called once from main.
func RegisterChatMetrics() {
	if chatMetricsRegistered {
		return
	}
	prometheus.MustRegister(ChatTurnsTotal)
	chatMetricsRegistered = true
}
