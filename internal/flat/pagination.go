package flat

import (
	"context"
	"errors"
	"fmt"
)

const (
	DefaultPageSize = 50
	// MaxPages bounds a pagination loop against a server that never
	// returns a short page.
	MaxPages = 200
)

var ErrPageLimit = errors.New("flat: pagination page limit reached")

// PageFetcher loads page (1-based) of size pageSize.
type PageFetcher[T any] func(ctx context.Context, page, pageSize int) (Page[T], error)

// Paginate requests pages 1, 2, ... and accumulates their items. It stops
// after a page shorter than pageSize, or once the accumulated count reaches
// the Total reported by the server.
func Paginate[T any](ctx context.Context, pageSize int, fetch PageFetcher[T]) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var all []T
	for page := 1; page <= MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := fetch(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Items...)

		if len(p.Items) < pageSize {
			return all, nil
		}
		if p.Total > 0 && len(all) >= p.Total {
			return all, nil
		}
	}
	return all, fmt.Errorf("%w (%d pages)", ErrPageLimit, MaxPages)
}
