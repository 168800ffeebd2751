package search

import (
	"context"

	"mmDiagnosis/domain"
)

// Query is one keyword search against one marketplace. Zero prices mean
// no bound.
type Query struct {
	Keywords string `json:"keywords"`
	MinPrice int    `json:"min_price,omitempty"`
	MaxPrice int    `json:"max_price,omitempty"`
	Hits     int    `json:"hits,omitempty"`
}

// Marketplace is a shopping search provider. Implementations own their rate
// limiting, retries and per-call deadline, and must honour ctx cancellation.
// ctx is the round context; a call's own deadline starts once it is allowed
// to go out, so time spent queued behind the limiter is not charged to it.
type Marketplace interface {
	Name() domain.Mall
	Search(ctx context.Context, q Query) ([]domain.SearchItem, error)
}
