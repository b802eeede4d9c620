package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// googleAPI stands in for the Google endpoint for the whole package. The
// library reads its URL from a global, so it is set once and tests swap the
// handler instead.
type googleAPI struct {
	mu      sync.Mutex
	handler http.HandlerFunc
}

func (g *googleAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	h := g.handler
	g.mu.Unlock()
	h(w, r)
}

var google = &googleAPI{}

func TestMain(m *testing.M) {
	srv := httptest.NewServer(google)
	geocoder.ApiUrl = srv.URL + "/?"
	code := m.Run()
	srv.Close()
	os.Exit(code)
}

func googleServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	google.mu.Lock()
	google.handler = handler
	google.mu.Unlock()
}

const googleOK = `{"status":"OK","results":[{"geometry":{"location":{"lat":48.85,"lng":2.35}}}]}`

func TestNewGoogleGeocoderRequiresKey(t *testing.T) {
	_, err := NewGoogleGeocoder("", time.Second)
	assert.ErrorIs(t, err, errNoAPIKey)
}

func TestGoogleGeocoderByName(t *testing.T) {
	googleServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(googleOK))
	})
	g, err := NewGoogleGeocoder("test-key", time.Second)
	require.NoError(t, err)

	c, err := g.ByName(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, 48.85, c.Lat)
	assert.Equal(t, 2.35, c.Lon)
}

func TestGoogleGeocoderEscapesUserText(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []url.Values
	)
	googleServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query())
		mu.Unlock()
		_, _ = w.Write([]byte(googleOK))
	})
	g, err := NewGoogleGeocoder("test-key", time.Second)
	require.NoError(t, err)

	_, err = g.ByName(context.Background(), "Saint-Jean&key=evil #1+2")
	require.NoError(t, err)
	_, err = g.ByPostalCode(context.Background(), "10001-1234", "US")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, "Saint-Jean&key=evil #1+2", seen[0].Get("address"))
	assert.Equal(t, []string{"test-key"}, seen[0]["key"])
	assert.Equal(t, "10001, US", seen[1].Get("address"))
}

func TestGoogleGeocoderMissingStatusIsFailure(t *testing.T) {
	googleServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	})
	g, err := NewGoogleGeocoder("test-key", time.Second)
	require.NoError(t, err)

	_, err = g.ByName(context.Background(), "Paris")
	assert.ErrorIs(t, err, errMalformed)
}

func TestGoogleGeocoderZeroResults(t *testing.T) {
	googleServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})
	g, err := NewGoogleGeocoder("test-key", time.Second)
	require.NoError(t, err)

	_, err = g.ByName(context.Background(), "Atlantis")
	assert.Error(t, err)
}

func TestGoogleGeocoderTimeoutIsFailure(t *testing.T) {
	release := make(chan struct{})
	googleServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(googleOK))
	})
	t.Cleanup(func() { close(release) })

	g, err := NewGoogleGeocoder("test-key", 50*time.Millisecond)
	require.NoError(t, err)
	slow, err := NewGoogleGeocoder("test-key", time.Minute)
	require.NoError(t, err)

	start := time.Now()
	_, err = g.ByName(context.Background(), "Paris")
	assert.True(t, errors.Is(err, context.DeadlineExceeded), err)
	assert.Less(t, time.Since(start), time.Second)

	// A shorter caller deadline wins over the configured timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start = time.Now()
	_, err = slow.ByName(ctx, "Paris")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGoogleGeocoderHonorsCancelledContext(t *testing.T) {
	g, err := NewGoogleGeocoder("test-key", time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.ByName(ctx, "Paris")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = g.ByPostalCode(ctx, "10001-1234", "US")
	assert.ErrorIs(t, err, context.Canceled)
}
