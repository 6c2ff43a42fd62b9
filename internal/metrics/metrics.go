package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nclb_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nclb_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AssistantRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nclb_assistant_requests_total",
			Help: "Total number of assistant chat requests processed.",
		},
		[]string{"status"},
	)

	AssistantLLMRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nclb_assistant_llm_retries_total",
			Help: "Total number of retried LLM completion calls.",
		},
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nclb_tool_calls_total",
			Help: "Total number of assistant tool invocations.",
		},
		[]string{"tool", "status"},
	)

	ConversationContexts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nclb_conversation_contexts",
			Help: "Number of user contexts currently held in memory.",
		},
	)

	ConversationTurnsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nclb_conversation_turns_total",
			Help: "Total number of conversation turns recorded.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AssistantRequestsTotal,
		AssistantLLMRetries,
		ToolCallsTotal,
		ConversationContexts,
		ConversationTurnsTotal,
	)
}
