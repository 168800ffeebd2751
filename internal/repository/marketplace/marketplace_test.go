package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"mmDiagnosis/business/search"
	"mmDiagnosis/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		AppID:       "app-1",
		CallTimeout: time.Second,
		RPS:         1000,
		Burst:       10,
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
		},
	}
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

const rakutenBody = `{
	"Items": [
		{
			"itemCode": "shop-a:100",
			"itemName": " 横向き寝 枕 ",
			"itemCaption": "首を支える",
			"itemUrl": "https://item.rakuten.co.jp/shop-a/100/",
			"itemPrice": 4980,
			"shopName": "Shop A",
			"mediumImageUrls": ["https://thumbnail.image.rakuten.co.jp/a.jpg?_ex=128x128"]
		},
		{
			"itemCode": "shop-b:200",
			"itemName": "枕",
			"itemUrl": "https://item.rakuten.co.jp/shop-b/200/",
			"itemPrice": 3000,
			"shopName": "Shop B",
			"mediumImageUrls": []
		}
	]
}`

func TestRakuten_SearchMapsItemsAndParams(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(rakutenBody))
	}))
	defer srv.Close()

	r := NewRakuten(testConfig(srv.URL))
	items, err := r.Search(context.Background(), search.Query{Keywords: "横向き寝 枕", MinPrice: 3000, MaxPrice: 5999, Hits: 50})
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, "app-1", q.Get("applicationId"))
	assert.Equal(t, "2", q.Get("formatVersion"))
	assert.Equal(t, "横向き寝 枕", q.Get("keyword"))
	assert.Equal(t, "30", q.Get("hits"))
	assert.Equal(t, "3000", q.Get("minPrice"))
	assert.Equal(t, "5999", q.Get("maxPrice"))

	require.Len(t, items, 2)
	assert.Equal(t, domain.SearchItem{
		ID:          "shop-a:100",
		Mall:        domain.MallRakuten,
		Title:       "横向き寝 枕",
		Description: "首を支える",
		URL:         "https://item.rakuten.co.jp/shop-a/100/",
		Image:       "https://thumbnail.image.rakuten.co.jp/a.jpg",
		Price:       4980,
		Shop:        "Shop A",
	}, items[0])
	assert.Empty(t, items[1].Image)
}

func TestRakuten_OmitsOpenBounds(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"Items":[]}`))
	}))
	defer srv.Close()

	items, err := NewRakuten(testConfig(srv.URL)).Search(context.Background(), search.Query{Keywords: "枕"})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.False(t, got.URL.Query().Has("minPrice"))
	assert.False(t, got.URL.Query().Has("maxPrice"))
}

func TestYahoo_SearchMapsHits(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"hits":[{"code":"store_1","name":"低め 枕","url":"https://store.shopping.yahoo.co.jp/s/1.html","price":2980,"image":{"small":"s.jpg","medium":"m.jpg"},"seller":{"name":"Store"}},{"code":"store_2","name":"枕","url":"https://store.shopping.yahoo.co.jp/s/2.html","price":0,"image":{"small":"s2.jpg"}}]}`))
	}))
	defer srv.Close()

	items, err := NewYahoo(testConfig(srv.URL)).Search(context.Background(), search.Query{Keywords: "枕", MaxPrice: 2999, Hits: 20})
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, "app-1", q.Get("appid"))
	assert.Equal(t, "枕", q.Get("query"))
	assert.Equal(t, "20", q.Get("results"))
	assert.Equal(t, "2999", q.Get("price_to"))
	assert.False(t, q.Has("price_from"))

	require.Len(t, items, 2)
	assert.Equal(t, domain.MallYahoo, items[0].Mall)
	assert.Equal(t, "m.jpg", items[0].Image)
	assert.Equal(t, "Store", items[0].Shop)
	assert.Equal(t, "s2.jpg", items[1].Image)
	assert.False(t, items[1].HasPrice())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"Items":[{"itemCode":"x","itemUrl":"u","itemPrice":1}]}`))
	}))
	defer srv.Close()

	r := NewRakuten(testConfig(srv.URL))
	r.sleep = noSleep

	items, err := r.Search(context.Background(), search.Query{Keywords: "枕"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_RetriesRateLimit(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"hits":[]}`))
	}))
	defer srv.Close()

	y := NewYahoo(testConfig(srv.URL))
	y.sleep = noSleep

	_, err := y.Search(context.Background(), search.Query{Keywords: "枕"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"wrong_parameter"}`))
	}))
	defer srv.Close()

	r := NewRakuten(testConfig(srv.URL))
	r.sleep = noSleep

	_, err := r.Search(context.Background(), search.Query{Keywords: "枕"})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.False(t, IsTransient(err))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewRakuten(testConfig(srv.URL))
	r.sleep = noSleep

	_, err := r.Search(context.Background(), search.Query{Keywords: "枕"})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_DecodeFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewYahoo(testConfig(srv.URL)).Search(context.Background(), search.Query{Keywords: "枕"})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestClient_PerCallTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.CallTimeout = 20 * time.Millisecond
	cfg.Retry.MaxAttempts = 1

	start := time.Now()
	_, err := NewYahoo(cfg).Search(context.Background(), search.Query{Keywords: "枕"})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestClient_BasicAuthHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"hits":[]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BasicAuthUser = "user"
	cfg.BasicAuthPassword = "pass"

	_, err := NewYahoo(cfg).Search(context.Background(), search.Query{Keywords: "枕"})
	require.NoError(t, err)
	assert.Equal(t, "Basic dXNlcjpwYXNz", auth)
}

func TestClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRakuten(testConfig("http://127.0.0.1:1")).Search(ctx, search.Query{Keywords: "枕"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	c := newClient(domain.MallRakuten, Config{Retry: RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    300 * time.Millisecond,
	}})

	for i := 0; i < 20; i++ {
		d1 := c.backoff(1, 0)
		assert.GreaterOrEqual(t, d1, 75*time.Millisecond)
		assert.LessOrEqual(t, d1, 125*time.Millisecond)

		d4 := c.backoff(4, 0)
		assert.GreaterOrEqual(t, d4, 225*time.Millisecond)
		assert.LessOrEqual(t, d4, 375*time.Millisecond)
	}

	assert.Equal(t, 200*time.Millisecond, c.backoff(1, 200*time.Millisecond))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, retryAfter("2"))
	assert.Zero(t, retryAfter(""))
	assert.Zero(t, retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}
