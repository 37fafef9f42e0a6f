package llm

import (
	"github.com/Conceptual-Machines/melodia-api/internal/metrics"
)

// Token metrics sinks shared by all providers. The CloudWatch client is
// injected at startup; until then only Sentry spans are recorded.
var (
	tokenMetrics      = metrics.NewSentryMetrics()
	cloudwatchMetrics *metrics.Client
)

// SetMetricsClient wires the CloudWatch client providers report token usage
// to. A nil or disabled client is a no-op.
func SetMetricsClient(c *metrics.Client) {
	cloudwatchMetrics = c
}
