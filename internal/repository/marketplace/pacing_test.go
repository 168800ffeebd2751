package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mmDiagnosis/business/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A round wider than the limiter's burst queues on the round context, and
// the queued calls still get their full per-call deadline.
func TestRakuten_DefaultPacingCompletesWideRound(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]int{}
		hits atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		mu.Lock()
		seen[r.URL.Query().Get("keyword")]++
		mu.Unlock()
		_, _ = w.Write([]byte(rakutenBody))
	}))
	defer srv.Close()

	r := NewRakuten(Config{BaseURL: srv.URL, AppID: "app-1"})
	cache := search.NewMemoryCache(16, time.Minute)
	agg := search.NewAggregator([]search.Marketplace{r}, cache, search.DefaultConfig())

	req := search.Request{Queries: []string{
		"横向き寝 枕", "仰向け 枕", "低め 枕", "高め 枕", "硬め 枕", "冷感 枕",
	}}

	start := time.Now()
	res := agg.Search(context.Background(), req)
	elapsed := time.Since(start)

	assert.Equal(t, search.RungStrict, res.Rung)
	assert.NotEmpty(t, res.Items)
	assert.Less(t, elapsed, 4*time.Second)

	mu.Lock()
	assert.Len(t, seen, 6)
	mu.Unlock()

	// a complete round is cached, so a repeat never reaches the server
	before := hits.Load()
	again := agg.Search(context.Background(), req)
	assert.Equal(t, search.RungStrict, again.Rung)
	require.Equal(t, before, hits.Load())
}
