package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointsA = `[
  {"id": "a1", "geometry": {"type": "Point", "coordinates": [14.4, 50.1]},
   "properties": {"h_cop30m": 200, "vel_avg": -3, "d_20200101": 0, "d_20200113": -0.5}},
  {"id": "a2", "geometry": {"type": "Point", "coordinates": [14.5, 50.2]},
   "properties": {"h_cop30m": 210, "vel_avg": 1, "d_20200101": 0, "d_20200113": 0.2}}
]`

const pointsB = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "id": "b1", "geometry": {"type": "Point", "coordinates": [14.6, 50.3]},
   "properties": {"h_cop30m": 220, "d_20200101": 0, "d_20200113": 1}},
  {"type": "Feature", "id": "bad", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]},
   "properties": {"h_cop30m": 1}}
]}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.json":
			_, _ = w.Write([]byte(pointsA))
		case "/b.json":
			_, _ = w.Write([]byte(pointsB))
		case "/points.csv":
			_, _ = w.Write([]byte("lat,lon,h_cop30m,vel_avg,d_1,d_2\n50,14,100,2,0,1\n"))
		case "/garbage.json":
			_, _ = w.Write([]byte(`{"type": "Feat`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestLoader(t *testing.T, f Fetcher, opts ...Option) *Loader {
	t.Helper()
	l, err := NewLoader(f, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return l
}

func TestLoad_ConcatenatesInLocationOrder(t *testing.T) {
	srv := newServer(t)
	l := newTestLoader(t, NewClient(5*time.Second))

	res, err := l.Load(context.Background(), []string{srv.URL + "/b.json", srv.URL + "/a.json"})
	require.NoError(t, err)

	ids := make([]string, len(res.Features))
	for i, f := range res.Features {
		ids[i] = f.ID
	}
	assert.Equal(t, []string{"b1", "a1", "a2"}, ids)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, 1, res.Sources[0].Count)
	assert.Equal(t, 1, res.Sources[0].Skipped)
	assert.Equal(t, 2, res.Sources[1].Count)
	assert.Zero(t, res.Failed())
}

func TestLoad_FailedSourceIsIsolated(t *testing.T) {
	srv := newServer(t)
	l := newTestLoader(t, NewClient(5*time.Second))

	res, err := l.Load(context.Background(), []string{
		srv.URL + "/missing.json",
		srv.URL + "/a.json",
		srv.URL + "/garbage.json",
	})
	require.NoError(t, err)

	assert.Len(t, res.Features, 2)
	assert.Equal(t, 2, res.Failed())
	assert.ErrorContains(t, res.Sources[0].Err, "404")
	assert.NoError(t, res.Sources[1].Err)
	assert.Error(t, res.Sources[2].Err)
}

func TestLoad_AllFail(t *testing.T) {
	srv := newServer(t)
	l := newTestLoader(t, NewClient(5*time.Second))

	res, err := l.Load(context.Background(), []string{srv.URL + "/nope.json"})
	require.NoError(t, err)
	assert.Empty(t, res.Features)
	assert.Equal(t, 1, res.Failed())
}

func TestLoad_NoLocations(t *testing.T) {
	l := newTestLoader(t, NewClient(time.Second))
	_, err := l.Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoLocations)
}

func TestLoad_CSVAndLocalFile(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()
	local := filepath.Join(dir, "local.json")
	require.NoError(t, os.WriteFile(local, []byte(pointsA), 0644))

	l := newTestLoader(t, NewClient(5*time.Second))
	res, err := l.Load(context.Background(), []string{srv.URL + "/points.csv", "file://" + local})
	require.NoError(t, err)
	require.Len(t, res.Features, 3)
	assert.Equal(t, 100.0, res.Features[0].Height)
	assert.Equal(t, []string{"h_cop30m", "vel_avg", "d_1", "d_2"}, res.Features[0].Keys)
	assert.Equal(t, "a1", res.Features[1].ID)
}

func TestLoad_Cancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	ctx, cancel := context.WithCancel(context.Background())
	l := newTestLoader(t, NewClient(5*time.Second))
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := l.Load(ctx, []string{srv.URL + "/slow.json"})
	assert.ErrorIs(t, err, context.Canceled)
}

type countingFetcher struct {
	mu       sync.Mutex
	bodies   map[string]string
	calls    map[string]int
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *countingFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[location]++
	body, ok := f.bodies[location]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(body), nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (c *memCache) Get(_ context.Context, loc string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[loc]
	return b, ok, nil
}

func (c *memCache) Put(_ context.Context, loc string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[loc] = body
	return nil
}

func TestLoad_UsesCache(t *testing.T) {
	f := &countingFetcher{
		bodies: map[string]string{"a.json": pointsA},
		calls:  map[string]int{},
	}
	c := &memCache{entries: map[string][]byte{}}
	l := newTestLoader(t, f, WithCache(c))

	res, err := l.Load(context.Background(), []string{"a.json"})
	require.NoError(t, err)
	assert.False(t, res.Sources[0].Cached)

	res, err = l.Load(context.Background(), []string{"a.json"})
	require.NoError(t, err)
	assert.True(t, res.Sources[0].Cached)
	assert.Len(t, res.Features, 2)
	assert.Equal(t, 1, f.calls["a.json"])
}

func TestLoad_ConcurrencyLimit(t *testing.T) {
	f := &countingFetcher{bodies: map[string]string{}, calls: map[string]int{}}
	var locs []string
	for _, name := range []string{"1", "2", "3", "4", "5", "6"} {
		loc := name + ".json"
		f.bodies[loc] = pointsA
		locs = append(locs, loc)
	}
	l := newTestLoader(t, f, WithConcurrency(2))

	res, err := l.Load(context.Background(), locs)
	require.NoError(t, err)
	assert.Len(t, res.Features, 12)
	assert.LessOrEqual(t, f.peak.Load(), int32(2))
}

func TestIsCSV(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"points.csv", true},
		{"https://host/data/POINTS.CSV?token=1", true},
		{"https://host/data/points.json", false},
		{"/tmp/points", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsCSV(tt.in), tt.in)
	}
}

func TestIsHTTP(t *testing.T) {
	assert.True(t, IsHTTP("https://example.com/a.json"))
	assert.True(t, IsHTTP("http://example.com"))
	assert.False(t, IsHTTP("file:///tmp/a.json"))
	assert.False(t, IsHTTP("./a.json"))
}
