package system

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var staleReferences metric.Int64Counter

func init() {
	m := otel.Meter("github.com/ChangeCaps/robots-or-smth/internal/system")
	staleReferences, _ = m.Int64Counter("rts.stale_references",
		metric.WithDescription("Messages naming an entity that is unknown or already despawned"))
}

func countStale(source string) {
	staleReferences.Add(context.Background(), 1, metric.WithAttributes(attribute.String("source", source)))
}
