// Package metrics holds the Prometheus collectors exported by the API and workers.
// Every recorder tolerates a nil receiver so callers can run without a registry.
package metrics

const namespace = "tradeflow"

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
