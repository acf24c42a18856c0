package analytics

import (
	"context"

	"github.com/indcloud/console/data"
)

// Source answers aggregate queries. *client.Client and *InfluxSource
// implement it.
type Source interface {
	Aggregate(ctx context.Context, q data.AggregateQuery) ([]data.AggregatePoint, error)
}

// DeviceLister returns the devices shown on the dashboard
type DeviceLister interface {
	Devices(ctx context.Context) ([]data.Device, error)
}
