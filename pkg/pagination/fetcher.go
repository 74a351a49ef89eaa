// Package pagination implements offset-based draining of paged external
// sources into a single ordered slice.
package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sync_pages_fetched_total",
	Help: "Total pages fetched from paged sources",
}, []string{"source"})

// DefaultPageSize is the page size imposed by the marketplace search API.
const DefaultPageSize = 50

// RequestFunc fetches one page: the items at the given offset, at most
// limit of them. Callers wrap the rate-limited client call here.
type RequestFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// FetchAll issues requests at increasing offsets until a short page
// signals the end of the data, returning all items in source order.
// Any page error aborts the whole fetch; no partial results are returned.
func FetchAll[T any](ctx context.Context, source string, fn RequestFunc[T], pageSize int) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	start := time.Now()
	var all []T
	offset := 0

	for {
		items, err := fn(ctx, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch %s page at offset %d: %w", source, offset, err)
		}
		pagesFetchedTotal.WithLabelValues(source).Inc()

		all = append(all, items...)
		offset += len(items)

		if len(items) < pageSize {
			break
		}
	}

	log.Debug().
		Str("source", source).
		Int("items", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Paged fetch complete")

	return all, nil
}
