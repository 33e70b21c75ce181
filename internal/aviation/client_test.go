package aviation_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeronav/airport-finder/internal/aviation"
	"github.com/aeronav/airport-finder/internal/cache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler, policy aviation.MissPolicy) (*aviation.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := cache.NewMemoryWithClock(time.Now)
	t.Cleanup(func() { _ = store.Close() })

	client := aviation.New(aviation.Config{
		BaseURL:    srv.URL,
		AccessKey:  "test-key",
		Store:      store,
		MissPolicy: policy,
		Logger:     testLogger(),
	})
	return client, srv
}

func rawItem(name, iata, icao, city, country string) map[string]any {
	return map[string]any{
		"airport_name":   name,
		"iata_code":      iata,
		"icao_code":      icao,
		"latitude":       "4.7016",
		"longitude":      -74.1469,
		"geoname_id":     "3688689",
		"timezone":       "America/Bogota",
		"gmt":            "-5",
		"phone_number":   nil,
		"country_name":   country,
		"country_iso2":   "CO",
		"city_iata_code": city,
	}
}

func listPayload(total int, items ...map[string]any) map[string]any {
	return map[string]any{
		"pagination": map[string]any{
			"limit":  len(items),
			"offset": 0,
			"count":  len(items),
			"total":  total,
		},
		"data": items,
	}
}

func serveJSON(t *testing.T, payload any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func TestGetAirports_ListPage(t *testing.T) {
	var gotQuery atomic.Value
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		serveJSON(t, listPayload(42,
			rawItem("El Dorado International", "BOG", "SKBO", "BOG", "Colombia"),
			rawItem("Jose Maria Cordova", "MDE", "SKRG", "MDE", "Colombia"),
			rawItem("Alfonso Bonilla Aragon", "CLO", "SKCL", "CLO", "Colombia"),
			rawItem("Rafael Nunez", "CTG", "SKCG", "CTG", "Colombia"),
			rawItem("Ernesto Cortissoz", "BAQ", "SKBQ", "BAQ", "Colombia"),
			rawItem("Matecana", "PEI", "SKPE", "PEI", "Colombia"),
		))(w, r)
	})

	client, _ := newTestClient(t, handler, "")

	resp, err := client.GetAirports(context.Background(), aviation.QueryParams{Limit: 6})
	require.NoError(t, err)

	assert.Equal(t, aviation.Pagination{Limit: 6, Offset: 0, Count: 6, Total: 42}, resp.Pagination)
	require.Len(t, resp.Data, 6)
	assert.Equal(t, "BOG", resp.Data[0].IATACode)

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, "test-key", q.Get("access_key"), "credentials injected as query parameter")
	assert.Equal(t, "6", q.Get("limit"))
}

func TestGetAirports_CacheHit(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		serveJSON(t, listPayload(1, rawItem("El Dorado", "BOG", "SKBO", "BOG", "Colombia")))(w, r)
	})

	client, _ := newTestClient(t, handler, "")
	ctx := context.Background()

	_, err := client.GetAirports(ctx, aviation.QueryParams{Limit: 6})
	require.NoError(t, err)
	_, err = client.GetAirports(ctx, aviation.QueryParams{Limit: 6})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second identical query served from cache")
}

func TestGetAirports_Deduplicates(t *testing.T) {
	handler := serveJSON(t, listPayload(3,
		rawItem("El Dorado", "BOG", "SKBO", "BOG", "Colombia"),
		rawItem("El Dorado dup", "BOG", "SKBO", "BOG", "Colombia"),
		rawItem("Cordova", "MDE", "SKRG", "MDE", "Colombia"),
	))

	client, _ := newTestClient(t, handler, "")

	resp, err := client.GetAirports(context.Background(), aviation.QueryParams{})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "El Dorado", resp.Data[0].Name, "first occurrence kept")
}

func TestGetAirports_SearchFilter(t *testing.T) {
	handler := serveJSON(t, listPayload(3,
		rawItem("El Dorado International", "BOG", "SKBO", "BOG", "Colombia"),
		rawItem("Jose Maria Cordova", "MDE", "SKRG", "MDE", "Colombia"),
		rawItem("Heathrow", "LHR", "EGLL", "LON", "United Kingdom"),
	))

	client, _ := newTestClient(t, handler, "")

	resp, err := client.GetAirports(context.Background(), aviation.QueryParams{Limit: 100, Search: "bog"})
	require.NoError(t, err)

	require.Len(t, resp.Data, 1)
	assert.Equal(t, "BOG", resp.Data[0].IATACode)
	assert.Equal(t, 1, resp.Pagination.Count, "count recomputed after filtering")
	assert.Equal(t, 1, resp.Pagination.Total, "total recomputed after filtering")
	assert.Equal(t, 100, resp.Pagination.Limit, "requested limit preserved")
}

func TestGetAirportByIATA(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "BOG", r.URL.Query().Get("iata_code"))
		serveJSON(t, listPayload(1, rawItem("El Dorado International", "BOG", "SKBO", "BOG", "Colombia")))(w, r)
	})

	client, _ := newTestClient(t, handler, "")
	ctx := context.Background()

	airport, err := client.GetAirportByIATA(ctx, "bog")
	require.NoError(t, err)
	require.NotNil(t, airport)
	assert.Equal(t, "BOG", airport.IATACode)

	// Present result is cached: the second lookup does not hit upstream.
	airport, err = client.GetAirportByIATA(ctx, "BOG")
	require.NoError(t, err)
	require.NotNil(t, airport)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetAirportByIATA_NotFoundNeverCached(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		serveJSON(t, listPayload(0))(w, r)
	})

	client, _ := newTestClient(t, handler, "")
	ctx := context.Background()

	airport, err := client.GetAirportByIATA(ctx, "XXX")
	require.NoError(t, err)
	assert.Nil(t, airport)

	_, err = client.GetAirportByIATA(ctx, "XXX")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "a negative result is re-fetched every time")
}

func TestGetAirportByIATA_InvalidCode(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	client, _ := newTestClient(t, handler, "")

	_, err := client.GetAirportByIATA(context.Background(), "B1G")
	require.Error(t, err)

	ae, ok := aviation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, aviation.KindValidation, ae.Kind)
	assert.Equal(t, int32(0), calls.Load(), "validation errors never reach the network")
}

func TestGetAirportByICAO(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SKBO", r.URL.Query().Get("icao_code"))
		serveJSON(t, listPayload(1, rawItem("El Dorado International", "BOG", "SKBO", "BOG", "Colombia")))(w, r)
	})

	client, _ := newTestClient(t, handler, "")

	airport, err := client.GetAirportByICAO(context.Background(), "skbo")
	require.NoError(t, err)
	require.NotNil(t, airport)
	assert.Equal(t, "SKBO", airport.ICAOCode)
}

func TestSearchAirports_CodeHit(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BOG", r.URL.Query().Get("iata_code"))
		serveJSON(t, listPayload(1, rawItem("El Dorado International", "BOG", "SKBO", "BOG", "Colombia")))(w, r)
	})

	client, _ := newTestClient(t, handler, "")

	resp, err := client.SearchAirports(context.Background(), "BOG")
	require.NoError(t, err)

	assert.Equal(t, aviation.Pagination{Limit: 1, Offset: 0, Count: 1, Total: 1}, resp.Pagination)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "BOG", resp.Data[0].IATACode)
}

func TestSearchAirports_CodeMiss_FallsBack(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("iata_code") != "" {
			serveJSON(t, listPayload(0))(w, r)
			return
		}
		assert.Equal(t, "100", r.URL.Query().Get("limit"), "fallback search raises the fetch limit")
		serveJSON(t, listPayload(2,
			rawItem("El Dorado International", "BOG", "SKBO", "BOG", "Colombia"),
			rawItem("Heathrow", "LHR", "EGLL", "LON", "United Kingdom"),
		))(w, r)
	})

	client, _ := newTestClient(t, handler, aviation.MissPolicyFallback)

	resp, err := client.SearchAirports(context.Background(), "bog")
	require.NoError(t, err)

	require.Len(t, resp.Data, 1)
	assert.Equal(t, "BOG", resp.Data[0].IATACode, "general search filters case-insensitively")
}

func TestSearchAirports_CodeMiss_NotFoundPolicy(t *testing.T) {
	handler := serveJSON(t, listPayload(0))

	client, _ := newTestClient(t, handler, aviation.MissPolicyNotFound)

	_, err := client.SearchAirports(context.Background(), "XXX")
	require.Error(t, err)

	ae, ok := aviation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, aviation.KindUpstream, ae.Kind)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

func TestSearchAirports_FreeText(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("iata_code"), "non-code queries skip the targeted lookup")
		serveJSON(t, listPayload(2,
			rawItem("El Dorado International", "BOG", "SKBO", "BOG", "Colombia"),
			rawItem("Jose Maria Cordova", "MDE", "SKRG", "MDE", "Colombia"),
		))(w, r)
	})

	client, _ := newTestClient(t, handler, "")

	resp, err := client.SearchAirports(context.Background(), "dorado")
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "El Dorado International", resp.Data[0].Name)
}

func TestGetAirportsByCountry(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CO", r.URL.Query().Get("country_iso2"))
		serveJSON(t, listPayload(1, rawItem("El Dorado International", "BOG", "SKBO", "BOG", "Colombia")))(w, r)
	})

	client, _ := newTestClient(t, handler, "")

	resp, err := client.GetAirportsByCountry(context.Background(), "co", aviation.QueryParams{Limit: 6})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
}

func TestGetAirportsByCountry_InvalidCode(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	client, _ := newTestClient(t, handler, "")

	_, err := client.GetAirportsByCountry(context.Background(), "USA", aviation.QueryParams{})
	require.Error(t, err)

	ae, ok := aviation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, aviation.KindValidation, ae.Kind)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_UpstreamError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    "invalid_access_key",
				"message": "Invalid API access key",
			},
		})
	})

	client, _ := newTestClient(t, handler, "")

	_, err := client.GetAirports(context.Background(), aviation.QueryParams{})
	require.Error(t, err)

	ae, ok := aviation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, aviation.KindUpstream, ae.Kind)
	assert.Equal(t, "invalid_access_key", ae.Code)
	assert.Equal(t, http.StatusForbidden, ae.Status)
	assert.Equal(t, "Invalid API access key", ae.Message)
}

func TestClient_UpstreamError_UnparseableBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	})

	client, _ := newTestClient(t, handler, "")

	_, err := client.GetAirports(context.Background(), aviation.QueryParams{})
	require.Error(t, err)

	ae, ok := aviation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, aviation.KindUpstream, ae.Kind)
	assert.Equal(t, "UNKNOWN_ERROR", ae.Code)
	assert.Equal(t, aviation.MsgUpstream, ae.Message, "generic fallback message")
}

func TestClient_Timeout(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	client, _ := newTestClient(t, handler, "")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.GetAirports(ctx, aviation.QueryParams{})
	require.Error(t, err)

	ae, ok := aviation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, aviation.KindTimeout, ae.Kind)
	assert.Equal(t, aviation.MsgTimeout, ae.Message)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	store := cache.NewMemoryWithClock(time.Now)
	t.Cleanup(func() { _ = store.Close() })

	client := aviation.New(aviation.Config{
		BaseURL:   srv.URL,
		AccessKey: "test-key",
		Store:     store,
		Logger:    testLogger(),
	})

	_, err := client.GetAirports(context.Background(), aviation.QueryParams{})
	require.Error(t, err)

	ae, ok := aviation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, aviation.KindNetwork, ae.Kind)
}

func TestInvalidateAirports(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		serveJSON(t, listPayload(1, rawItem("El Dorado", "BOG", "SKBO", "BOG", "Colombia")))(w, r)
	})

	client, _ := newTestClient(t, handler, "")
	ctx := context.Background()

	_, err := client.GetAirports(ctx, aviation.QueryParams{Limit: 6})
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())

	require.NoError(t, client.InvalidateAirports(ctx))

	_, err = client.GetAirports(ctx, aviation.QueryParams{Limit: 6})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "invalidated entry is re-fetched")
}

func TestInvalidateAirport(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		serveJSON(t, listPayload(1, rawItem("El Dorado", "BOG", "SKBO", "BOG", "Colombia")))(w, r)
	})

	client, _ := newTestClient(t, handler, "")
	ctx := context.Background()

	_, err := client.GetAirportByIATA(ctx, "BOG")
	require.NoError(t, err)

	require.NoError(t, client.InvalidateAirport(ctx, "BOG"))

	_, err = client.GetAirportByIATA(ctx, "BOG")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
