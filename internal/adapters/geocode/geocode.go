// Package geocode resolves US postal codes to coordinates through the
// zippopotam.us API with rate limiting and a shared cache
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"marketfeed/internal/platform/config"
	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/metrics"

	"golang.org/x/time/rate"
)

// Point is a WGS84 coordinate pair
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Config controls the upstream client
type Config struct {
	BaseURL     string
	RPS         float64
	Burst       int
	Timeout     time.Duration
	CacheTTL    time.Duration
	NegativeTTL time.Duration
	UserAgent   string
}

// ConfigFromEnv reads GEOCODE_* from the given root
func ConfigFromEnv(root config.Conf) Config {
	c := root.Prefix("GEOCODE_")
	return Config{
		BaseURL:     c.MayString("BASE_URL", "https://api.zippopotam.us/us"),
		RPS:         c.MayFloat64("RPS", 5),
		Burst:       c.MayInt("BURST", 5),
		Timeout:     c.MayDuration("TIMEOUT", 5*time.Second),
		CacheTTL:    c.MayDuration("CACHE_TTL", 30*24*time.Hour),
		NegativeTTL: c.MayDuration("NEGATIVE_TTL", time.Hour),
		UserAgent:   c.MayString("USER_AGENT", "marketfeed-geocoder"),
	}
}

var zip5 = regexp.MustCompile(`^\d{5}$`)

// ValidZip reports whether s is a 5 digit postal code
func ValidZip(s string) bool { return zip5.MatchString(s) }

var zipInText = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)

// ExtractZip pulls the last 5 digit postal code out of free text like "Austin, TX 78701"
func ExtractZip(location string) string {
	m := zipInText.FindAllStringSubmatch(location, -1)
	if len(m) == 0 {
		return ""
	}
	return m[len(m)-1][1]
}

// Client is the zippopotam client
type Client struct {
	cfg   Config
	http  *http.Client
	lim   *rate.Limiter
	cache Cache
}

// New builds a Client; a nil cache falls back to an in-process map
func New(cfg Config, cache Cache) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.zippopotam.us/us"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * 24 * time.Hour
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = time.Hour
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RPS), max(1, cfg.Burst))
	}
	if cache == nil {
		cache = NewMemCache()
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		lim:   lim,
		cache: cache,
	}
}

// Lookup resolves zip to a Point. ok is false when the postal code is unknown.
// Malformed codes are InvalidArgument; upstream failures are Unavailable
func (c *Client) Lookup(ctx context.Context, zip string) (Point, bool, error) {
	zip = strings.TrimSpace(zip)
	if !ValidZip(zip) {
		return Point{}, false, perr.WithField(perr.InvalidArgf("postal code must be 5 digits"), "postal_code")
	}
	if e, hit := c.cache.Get(ctx, zip); hit {
		return e.Point, e.Found, nil
	}

	p, found, err := c.fetch(ctx, zip)
	if err != nil {
		return Point{}, false, err
	}
	ttl := c.cfg.CacheTTL
	if !found {
		ttl = c.cfg.NegativeTTL
	}
	c.cache.Set(ctx, zip, Entry{Point: p, Found: found}, ttl)
	return p, found, nil
}

type zipResponse struct {
	Places []struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}

func (c *Client) fetch(ctx context.Context, zip string) (p Point, found bool, err error) {
	start := time.Now()
	target := hostOf(c.cfg.BaseURL)
	defer func() { metrics.ObserveNetworkRequest("geocode", "lookup", target, start, err) }()

	if err = c.lim.Wait(ctx); err != nil {
		return Point{}, false, perr.Wrap(err, perr.ErrorCodeUnavailable, "geocode rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+"/"+zip, nil)
	if err != nil {
		return Point{}, false, perr.Wrap(err, perr.ErrorCodeUnknown, "geocode request")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Point{}, false, perr.Wrap(err, perr.ErrorCodeUnavailable, "geocode upstream")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Point{}, false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return Point{}, false, perr.Newf(perr.ErrorCodeTooManyRequests, "geocode upstream throttled")
	case resp.StatusCode != http.StatusOK:
		return Point{}, false, perr.Unavailablef("geocode upstream status %d", resp.StatusCode)
	}

	var body zipResponse
	if err = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return Point{}, false, perr.Wrap(err, perr.ErrorCodeUnavailable, "geocode decode")
	}
	if len(body.Places) == 0 {
		return Point{}, false, nil
	}
	lat, errLat := strconv.ParseFloat(body.Places[0].Latitude, 64)
	lon, errLon := strconv.ParseFloat(body.Places[0].Longitude, 64)
	if errLat != nil || errLon != nil {
		logger.C(ctx).Warn().Str("zip", zip).Msg("geocode returned unparseable coordinates")
		return Point{}, false, nil
	}
	return Point{Lat: lat, Lon: lon}, true, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

// String renders a point for logs
func (p Point) String() string { return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon) }
