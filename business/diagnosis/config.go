package diagnosis

import "time"

type Config struct {
	// how many leading categories feed keyword derivation
	SearchCategories int
	SearchLimit      int

	// budget for one fire-and-forget event write
	EventTimeout time.Duration
}

const (
	defaultSearchCategories = 2
	defaultSearchLimit      = 20
	defaultEventTimeout     = 3 * time.Second
)

func DefaultConfig() Config {
	return Config{
		SearchCategories: defaultSearchCategories,
		SearchLimit:      defaultSearchLimit,
		EventTimeout:     defaultEventTimeout,
	}
}
