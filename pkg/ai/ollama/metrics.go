package ollama

import (
	"math"

	"github.com/OFFIS-RIT/grove/pkg/ai"
)

// ResetMetrics zeroes the accumulated usage counters.
func (c *GraphOllamaClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics reports the usage accumulated since the last reset.
func (c *GraphOllamaClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

// recordUsage folds the usage of one completed request into the running
// totals and refreshes the derived throughput value.
func (c *GraphOllamaClient) recordUsage(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs

	if c.metrics.DurationMs == 0 {
		return
	}
	perSecond := float64(c.metrics.TotalTokens) * 1000.0 / float64(c.metrics.DurationMs)
	c.metrics.TokenPerSecond = float32(math.Round(perSecond*100) / 100)
}
