// Package aviation is the gateway to the aviationstack REST API: it builds
// authenticated upstream URLs, classifies failures into a single tagged
// error type, maps raw payloads into the normalized Airport shape, and
// wraps every operation in a TTL cache with singleflight de-duplication of
// concurrent misses.
package aviation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aeronav/airport-finder/internal/cache"
	"github.com/aeronav/airport-finder/internal/validate"
)

const (
	// DefaultBaseURL is the production aviationstack endpoint.
	DefaultBaseURL = "https://api.aviationstack.com/v1"

	airportsEndpoint = "/airports"

	httpTimeout = 10 * time.Second

	// Cache TTLs per operation.
	TTLAirportsList   = time.Hour
	TTLAirportDetails = 2 * time.Hour
	TTLSearchResults  = 30 * time.Minute

	// searchFetchLimit raises the upstream page size for free-text searches
	// so client-side pagination has enough candidates to slice.
	searchFetchLimit = 100
)

// Cache key prefixes.
const (
	listKeyPrefix   = "airports"
	detailKeyPrefix = "airport"
)

// MissPolicy decides what a code-shaped search does when the targeted
// IATA/ICAO lookup yields nothing (no record, or a lookup error).
type MissPolicy string

const (
	// MissPolicyFallback fails over to a general free-text search.
	MissPolicyFallback MissPolicy = "fallback"
	// MissPolicyNotFound surfaces a terminal not-found error instead.
	MissPolicyNotFound MissPolicy = "not_found"
)

// ParseMissPolicy maps a config string onto a MissPolicy, defaulting to
// fallback for anything unrecognized.
func ParseMissPolicy(s string) MissPolicy {
	if MissPolicy(strings.ToLower(strings.TrimSpace(s))) == MissPolicyNotFound {
		return MissPolicyNotFound
	}
	return MissPolicyFallback
}

// Config carries the client's construction parameters.
type Config struct {
	// BaseURL defaults to DefaultBaseURL. Tests point it at an httptest
	// server.
	BaseURL string
	// AccessKey is the upstream credential, injected as a query parameter.
	AccessKey string
	// Store is the TTL cache wrapped around every operation.
	Store cache.Store
	// MissPolicy defaults to MissPolicyFallback.
	MissPolicy MissPolicy
	Logger     *slog.Logger
}

// Client is the aviationstack API gateway.
type Client struct {
	baseURL    string
	accessKey  string
	http       *http.Client
	store      cache.Store
	group      singleflight.Group
	missPolicy MissPolicy
	log        *slog.Logger
}

// New constructs a Client, applying defaults for omitted config fields.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	policy := cfg.MissPolicy
	if policy == "" {
		policy = MissPolicyFallback
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		accessKey:  cfg.AccessKey,
		http:       &http.Client{Timeout: httpTimeout},
		store:      cfg.Store,
		missPolicy: policy,
		log:        log,
	}
}

// upstreamErrorBody is the error envelope the upstream returns on non-2xx.
type upstreamErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// doGet issues the upstream request and classifies every failure mode into
// *Error. The request inherits ctx, so cancellation tears the call down
// deterministically.
func (c *Client) doGet(ctx context.Context, params map[string]string) (RawResponse, error) {
	rawURL := buildURL(c.baseURL, airportsEndpoint, c.accessKey, params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return RawResponse{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return RawResponse{}, timeoutError()
		}
		return RawResponse{}, networkError()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body upstreamErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return RawResponse{}, upstreamError(body.Error.Code, body.Error.Message, resp.StatusCode)
	}

	var raw RawResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.log.Warn("decoding upstream response failed", "err", err)
		return RawResponse{}, networkError()
	}
	return raw, nil
}

// fetchList serves a list query through the cache: fresh hit → return;
// miss → one upstream fetch per key at a time (singleflight), map, dedup,
// store. Cache failures degrade to a direct fetch, never to a request error.
func (c *Client) fetchList(ctx context.Context, key string, params map[string]string, ttl time.Duration) (*AirportsResponse, error) {
	if b, ok, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn("cache get failed", "key", key, "err", err)
	} else if ok {
		var cached AirportsResponse
		if err := json.Unmarshal(b, &cached); err == nil {
			return &cached, nil
		}
		c.log.Warn("dropping undecodable cache entry", "key", key)
		_ = c.store.Delete(ctx, key)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		raw, err := c.doGet(ctx, params)
		if err != nil {
			return nil, err
		}

		mapped := MapAirportsResponse(raw)
		mapped.Data = RemoveDuplicates(mapped.Data)

		if b, err := json.Marshal(mapped); err == nil {
			if err := c.store.Set(ctx, key, b, ttl); err != nil {
				c.log.Warn("cache set failed", "key", key, "err", err)
			}
		}
		return &mapped, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*AirportsResponse), nil
}

// getAirports normalizes params, fetches the upstream superset, and applies
// the client-side filters the upstream API does not support.
func (c *Client) getAirports(ctx context.Context, params QueryParams, ttl time.Duration) (*AirportsResponse, error) {
	p := params.normalized()
	upstream := p.upstream()
	key := cache.Key(listKeyPrefix, upstream)

	resp, err := c.fetchList(ctx, key, upstream, ttl)
	if err != nil {
		return nil, err
	}

	if p.Search == "" && p.CityIATACode == "" && p.AirportName == "" {
		return resp, nil
	}

	filtered := filterAirports(resp.Data, p)
	return &AirportsResponse{
		Pagination: Pagination{
			Limit:  resp.Pagination.Limit,
			Offset: resp.Pagination.Offset,
			Count:  len(filtered),
			Total:  len(filtered),
		},
		Data: filtered,
	}, nil
}

// filterAirports applies the in-memory filters: a case-insensitive substring
// match across name/IATA/ICAO/city/country for Search, plus the city-code
// and airport-name filters the upstream has no native parameter for.
func filterAirports(airports []Airport, p QueryParams) []Airport {
	search := strings.ToLower(p.Search)
	name := strings.ToLower(p.AirportName)

	out := make([]Airport, 0, len(airports))
	for _, a := range airports {
		if search != "" && !matchesSearch(a, search) {
			continue
		}
		if p.CityIATACode != "" && !strings.EqualFold(a.CityIATACode, p.CityIATACode) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(a.Name), name) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchesSearch(a Airport, lowered string) bool {
	return strings.Contains(strings.ToLower(a.Name), lowered) ||
		strings.Contains(strings.ToLower(a.IATACode), lowered) ||
		strings.Contains(strings.ToLower(a.ICAOCode), lowered) ||
		strings.Contains(strings.ToLower(a.CityIATACode), lowered) ||
		strings.Contains(strings.ToLower(a.CountryName), lowered)
}

// GetAirports lists airports with pagination and optional client-side
// filtering.
func (c *Client) GetAirports(ctx context.Context, params QueryParams) (*AirportsResponse, error) {
	return c.getAirports(ctx, params, TTLAirportsList)
}

// GetAirportByIATA looks up a single airport by its 3-letter IATA code.
// Returns nil, nil when the code does not exist upstream; that negative
// result is never cached, so a code that later appears upstream is not
// permanently hidden.
func (c *Client) GetAirportByIATA(ctx context.Context, iataCode string) (*Airport, error) {
	code := strings.ToUpper(strings.TrimSpace(iataCode))
	if !validate.IATACode(code) {
		return nil, validationError(fmt.Sprintf("código IATA inválido: %s", iataCode))
	}
	return c.lookupAirport(ctx, map[string]string{"iata_code": code})
}

// GetAirportByICAO looks up a single airport by its 4-letter ICAO code.
// Same caching contract as GetAirportByIATA.
func (c *Client) GetAirportByICAO(ctx context.Context, icaoCode string) (*Airport, error) {
	code := strings.ToUpper(strings.TrimSpace(icaoCode))
	if !validate.ICAOCode(code) {
		return nil, validationError(fmt.Sprintf("código ICAO inválido: %s", icaoCode))
	}
	return c.lookupAirport(ctx, map[string]string{"icao_code": code})
}

func (c *Client) lookupAirport(ctx context.Context, params map[string]string) (*Airport, error) {
	key := cache.Key(detailKeyPrefix, params)

	if b, ok, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn("cache get failed", "key", key, "err", err)
	} else if ok {
		var cached Airport
		if err := json.Unmarshal(b, &cached); err == nil {
			return &cached, nil
		}
		c.log.Warn("dropping undecodable cache entry", "key", key)
		_ = c.store.Delete(ctx, key)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		raw, err := c.doGet(ctx, params)
		if err != nil {
			return nil, err
		}

		airport := MapSingleAirport(raw)
		if airport == nil {
			// Not found: only present results are cached.
			return (*Airport)(nil), nil
		}

		if b, err := json.Marshal(airport); err == nil {
			if err := c.store.Set(ctx, key, b, TTLAirportDetails); err != nil {
				c.log.Warn("cache set failed", "key", key, "err", err)
			}
		}
		return airport, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Airport), nil
}

// SearchAirports dispatches by query shape: a 3-letter query tries an IATA
// lookup first and a 4-letter query an ICAO lookup. What happens when the
// targeted lookup misses is governed by the configured MissPolicy; the
// default fails over to a general free-text search with a raised limit so
// the caller can paginate client-side.
func (c *Client) SearchAirports(ctx context.Context, query string) (*AirportsResponse, error) {
	q := strings.TrimSpace(query)

	var lookup func(context.Context, string) (*Airport, error)
	switch {
	case len(q) == 3 && validate.IATACode(q):
		lookup = c.GetAirportByIATA
	case len(q) == 4 && validate.ICAOCode(q):
		lookup = c.GetAirportByICAO
	}

	if lookup != nil {
		airport, err := lookup(ctx, q)
		if err == nil && airport != nil {
			return &AirportsResponse{
				Pagination: Pagination{Limit: 1, Offset: 0, Count: 1, Total: 1},
				Data:       []Airport{*airport},
			}, nil
		}
		if c.missPolicy == MissPolicyNotFound {
			if err != nil {
				return nil, err
			}
			return nil, notFoundError()
		}
		if err != nil {
			c.log.Warn("code lookup failed, falling back to general search", "query", q, "err", err)
		}
	}

	return c.getAirports(ctx, QueryParams{Search: q, Limit: searchFetchLimit}, TTLSearchResults)
}

// GetAirportsByCountry delegates to GetAirports with country_iso2 fixed to
// the given code.
func (c *Client) GetAirportsByCountry(ctx context.Context, countryCode string, params QueryParams) (*AirportsResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if !validate.CountryISO2(code) {
		return nil, validationError(fmt.Sprintf("código de país inválido: %s", countryCode))
	}
	params.CountryISO2 = code
	return c.GetAirports(ctx, params)
}

// InvalidateAirports drops every cached list, search and detail entry. A
// one-way signal: subsequent reads refetch from upstream.
func (c *Client) InvalidateAirports(ctx context.Context) error {
	if err := c.store.DeletePrefix(ctx, listKeyPrefix); err != nil {
		return fmt.Errorf("invalidating airport lists: %w", err)
	}
	if err := c.store.DeletePrefix(ctx, detailKeyPrefix+":"); err != nil {
		return fmt.Errorf("invalidating airport details: %w", err)
	}
	return nil
}

// InvalidateAirport drops the cached detail entry for one code. Both key
// shapes are deleted; removing a key that was never set is harmless.
func (c *Client) InvalidateAirport(ctx context.Context, code string) error {
	upper := strings.ToUpper(strings.TrimSpace(code))
	for _, params := range []map[string]string{
		{"iata_code": upper},
		{"icao_code": upper},
	} {
		if err := c.store.Delete(ctx, cache.Key(detailKeyPrefix, params)); err != nil {
			return fmt.Errorf("invalidating airport %s: %w", upper, err)
		}
	}
	return nil
}
