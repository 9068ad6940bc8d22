// Package mapclient implements sim.MapOracle against an OSRM-compatible
// routing server, with an in-process FIFO cache and an optional Redis
// cache tier for sharing travel-time lookups across kernel instances
// (e.g. the two Kernels in a Dual Driver comparison run).
package mapclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carpoolsim/carpoolsim/sim"
)

const (
	defaultTimeout      = 5 * time.Second
	maxResponseBytes    = 1 << 20 // 1 MB, an OSRM /route response is a few KB
	avgFallbackSpeedMPS = 40 * 1000.0 / 3600.0 // 40 km/h urban fallback
	earthRadiusMeters   = 6371000.0
)

// Client queries an OSRM-compatible HTTP routing server for driving
// duration and distance between two points, falling back to a
// haversine-distance estimate if the server is unreachable or errors.
// Results are cached by rounded coordinate pair.
type Client struct {
	serverURL string
	http      *http.Client
	cache     *fifoCache
	remote    *redisTier
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default timeout-bound http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithCacheSize overrides the default in-process cache capacity.
func WithCacheSize(n int) Option {
	return func(cl *Client) { cl.cache = newFIFOCache(n) }
}

// New constructs a Client against the given OSRM server base URL
// (e.g. "http://127.0.0.1:5000").
func New(serverURL string, opts ...Option) *Client {
	c := &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		cache:     newFIFOCache(10000),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type routeResult struct {
	DurationSeconds float64
	DistanceMeters  float64
}

// Duration implements sim.MapOracle.
func (c *Client) Duration(origin, destination sim.Location) (float64, error) {
	r, err := c.route(origin, destination)
	if err != nil {
		return 0, err
	}
	return r.DurationSeconds, nil
}

// Distance implements sim.MapOracle.
func (c *Client) Distance(origin, destination sim.Location) (float64, error) {
	r, err := c.route(origin, destination)
	if err != nil {
		return 0, err
	}
	return r.DistanceMeters, nil
}

// CacheStats reports the cache's hit/miss counters.
func (c *Client) CacheStats() (hits, misses int) {
	return c.cache.hits, c.cache.misses
}

func (c *Client) route(origin, destination sim.Location) (routeResult, error) {
	key := cacheKey(origin, destination)
	if r, ok := c.cache.get(key); ok {
		return r, nil
	}
	if c.remote != nil {
		if r, ok := c.remote.get(context.Background(), key); ok {
			c.cache.put(key, r)
			return r, nil
		}
	}

	r, err := c.fetchRoute(origin, destination)
	if err != nil {
		logrus.Warnf("mapclient: OSRM request failed (%v), using haversine fallback", err)
		r = fallbackRoute(origin, destination)
	}
	c.cache.put(key, r)
	if c.remote != nil {
		c.remote.put(context.Background(), key, r)
	}
	return r, nil
}

func (c *Client) fetchRoute(origin, destination sim.Location) (routeResult, error) {
	// OSRM expects lon,lat ordering.
	coords := fmt.Sprintf("%f,%f;%f,%f", origin.Lon, origin.Lat, destination.Lon, destination.Lat)
	u := fmt.Sprintf("%s/route/v1/driving/%s?%s", c.serverURL, coords, url.Values{
		"overview":  {"false"},
		"geometries": {"geojson"},
		"steps":      {"false"},
	}.Encode())

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return routeResult{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return routeResult{}, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return routeResult{}, fmt.Errorf("unexpected HTTP %d from OSRM", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return routeResult{}, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > maxResponseBytes {
		return routeResult{}, fmt.Errorf("response exceeds %d bytes limit", maxResponseBytes)
	}

	var parsed struct {
		Code   string `json:"code"`
		Routes []struct {
			Duration float64 `json:"duration"`
			Distance float64 `json:"distance"`
		} `json:"routes"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return routeResult{}, fmt.Errorf("parse OSRM response: %w", err)
	}
	if parsed.Code != "Ok" {
		return routeResult{}, fmt.Errorf("OSRM error: %s", parsed.Message)
	}
	if len(parsed.Routes) == 0 {
		return routeResult{}, fmt.Errorf("OSRM returned no routes")
	}

	return routeResult{
		DurationSeconds: parsed.Routes[0].Duration,
		DistanceMeters:  parsed.Routes[0].Distance,
	}, nil
}

// fallbackRoute estimates duration/distance with the haversine formula and
// an assumed urban driving speed, used when OSRM is unreachable.
func fallbackRoute(origin, destination sim.Location) routeResult {
	d := haversineMeters(origin, destination)
	return routeResult{
		DurationSeconds: d / avgFallbackSpeedMPS,
		DistanceMeters:  d,
	}
}

func haversineMeters(a, b sim.Location) float64 {
	return haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

func cacheKey(origin, destination sim.Location) string {
	oLat, oLon := origin.RoundedKey()
	dLat, dLon := destination.RoundedKey()
	return strconv.FormatFloat(oLat, 'f', 6, 64) + "," + strconv.FormatFloat(oLon, 'f', 6, 64) +
		"->" + strconv.FormatFloat(dLat, 'f', 6, 64) + "," + strconv.FormatFloat(dLon, 'f', 6, 64)
}
