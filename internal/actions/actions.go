// Package actions wraps the aviation gateway in the uniform success/failure
// envelope the presentation layer consumes. Input validation happens here
// before any network call; every failure mode becomes a value, never a
// panic or a raw transport error.
package actions

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aeronav/airport-finder/internal/aviation"
	"github.com/aeronav/airport-finder/internal/validate"
)

// maxPages bounds page clamping for upstream-paginated queries, whose real
// total is unknown until the response arrives.
const maxPages = 1000

// User-facing failure messages.
const (
	MsgAirportsFetch  = "Error al obtener los aeropuertos. Por favor, intenta nuevamente."
	MsgDetailsFetch   = "Error al obtener los detalles del aeropuerto. Por favor, intenta nuevamente."
	MsgSearchFetch    = "Error al buscar aeropuertos. Por favor, intenta nuevamente."
	MsgCountryFetch   = "Error al obtener aeropuertos por país. Por favor, intenta nuevamente."
	MsgCodeRequired   = "El código del aeropuerto es requerido"
	MsgInvalidCountry = "Código de país inválido. Debe ser un código ISO2 de 2 letras."
	MsgRevalidate     = "Error al revalidar la caché"
	MsgRevalidateOne  = "Error al revalidar la caché del aeropuerto"
	msgNotFoundByCode = "No se encontró el aeropuerto con código: "
)

// Result is the envelope every action returns: either Success with Data or
// a user-facing Error string.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func success[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func failure[T any](message string) Result[T] {
	return Result[T]{Success: false, Error: message}
}

// Gateway is the aviation client surface the actions need. Satisfied by
// *aviation.Client; mocked in tests.
type Gateway interface {
	GetAirports(ctx context.Context, params aviation.QueryParams) (*aviation.AirportsResponse, error)
	GetAirportByIATA(ctx context.Context, iataCode string) (*aviation.Airport, error)
	GetAirportByICAO(ctx context.Context, icaoCode string) (*aviation.Airport, error)
	SearchAirports(ctx context.Context, query string) (*aviation.AirportsResponse, error)
	GetAirportsByCountry(ctx context.Context, countryCode string, params aviation.QueryParams) (*aviation.AirportsResponse, error)
	InvalidateAirports(ctx context.Context) error
	InvalidateAirport(ctx context.Context, code string) error
}

// Actions orchestrates gateway operations behind the Result envelope.
type Actions struct {
	gw  Gateway
	log *slog.Logger
}

// New constructs Actions over the given gateway.
func New(gw Gateway, log *slog.Logger) *Actions {
	return &Actions{gw: gw, log: log}
}

// errMessage extracts the user-facing message from a gateway error, falling
// back to the operation's generic message for anything unclassified.
func errMessage(err error, fallback string) string {
	if ae, ok := aviation.AsError(err); ok {
		return ae.Message
	}
	return fallback
}

// clampPaging normalizes page and limit and derives the list offset.
func clampPaging(page, limit int) (validPage, validLimit, offset int) {
	validPage = validate.PageNumber(page, maxPages)
	validLimit = validate.Limit(limit)
	offset = (validPage - 1) * validLimit
	return validPage, validLimit, offset
}

// GetAirports lists airports for one page.
func (a *Actions) GetAirports(ctx context.Context, page, limit int) Result[aviation.AirportsResponse] {
	_, validLimit, offset := clampPaging(page, limit)

	resp, err := a.gw.GetAirports(ctx, aviation.QueryParams{Limit: validLimit, Offset: offset})
	if err != nil {
		a.log.Error("airports list failed", "page", page, "err", err)
		return failure[aviation.AirportsResponse](errMessage(err, MsgAirportsFetch))
	}
	return success(*resp)
}

// GetAirportDetails resolves one airport by IATA (3 letters) or ICAO
// (4 letters) code.
func (a *Actions) GetAirportDetails(ctx context.Context, code string) Result[aviation.Airport] {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return failure[aviation.Airport](MsgCodeRequired)
	}

	var airport *aviation.Airport
	var err error

	switch {
	case len(trimmed) == 3 && validate.IATACode(trimmed):
		airport, err = a.gw.GetAirportByIATA(ctx, trimmed)
	case len(trimmed) == 4 && validate.ICAOCode(trimmed):
		airport, err = a.gw.GetAirportByICAO(ctx, trimmed)
	}

	if err != nil {
		a.log.Error("airport details failed", "code", trimmed, "err", err)
		return failure[aviation.Airport](errMessage(err, MsgDetailsFetch))
	}
	if airport == nil {
		return failure[aviation.Airport](msgNotFoundByCode + trimmed)
	}
	return success(*airport)
}

// SearchAirports validates the query, delegates to the gateway, and slices
// the result set into the requested page, recomputing count and total.
func (a *Actions) SearchAirports(ctx context.Context, query string, page, limit int) Result[aviation.AirportsResponse] {
	if err := validate.SearchQuery(query); err != nil {
		return failure[aviation.AirportsResponse](err.Error())
	}

	_, validLimit, offset := clampPaging(page, limit)

	resp, err := a.gw.SearchAirports(ctx, strings.TrimSpace(query))
	if err != nil {
		a.log.Error("airport search failed", "query", query, "err", err)
		return failure[aviation.AirportsResponse](errMessage(err, MsgSearchFetch))
	}

	total := len(resp.Data)
	start := offset
	if start > total {
		start = total
	}
	end := start + validLimit
	if end > total {
		end = total
	}
	paged := resp.Data[start:end]

	return success(aviation.AirportsResponse{
		Pagination: aviation.Pagination{
			Limit:  validLimit,
			Offset: offset,
			Count:  len(paged),
			Total:  total,
		},
		Data: paged,
	})
}

// GetAirportsByCountry lists airports for one ISO2 country code. A
// malformed code short-circuits without a network call.
func (a *Actions) GetAirportsByCountry(ctx context.Context, countryCode string, page, limit int) Result[aviation.AirportsResponse] {
	trimmed := strings.TrimSpace(countryCode)
	if !validate.CountryISO2(trimmed) {
		return failure[aviation.AirportsResponse](MsgInvalidCountry)
	}

	_, validLimit, offset := clampPaging(page, limit)

	resp, err := a.gw.GetAirportsByCountry(ctx, strings.ToUpper(trimmed), aviation.QueryParams{Limit: validLimit, Offset: offset})
	if err != nil {
		a.log.Error("airports by country failed", "country", trimmed, "err", err)
		return failure[aviation.AirportsResponse](errMessage(err, MsgCountryFetch))
	}
	return success(*resp)
}

// PageParams are the composite query options for GetAirportsByPage.
type PageParams struct {
	Page    int
	Limit   int
	Search  string
	Country string
}

// GetAirportsByPage dispatches on the optional parameters in fixed
// precedence: explicit text search first, then country filter, then the
// default list.
func (a *Actions) GetAirportsByPage(ctx context.Context, params PageParams) Result[aviation.AirportsResponse] {
	if strings.TrimSpace(params.Search) != "" {
		return a.SearchAirports(ctx, params.Search, params.Page, params.Limit)
	}
	if strings.TrimSpace(params.Country) != "" {
		return a.GetAirportsByCountry(ctx, params.Country, params.Page, params.Limit)
	}
	return a.GetAirports(ctx, params.Page, params.Limit)
}

// RevalidateAirports discards cached airport data. A path-like identifier
// whose last segment is an airport code narrows the invalidation to that
// airport; anything else discards all list, search and detail entries.
func (a *Actions) RevalidateAirports(ctx context.Context, path string) Result[any] {
	if code := codeFromPath(path); code != "" {
		return a.RevalidateAirportDetails(ctx, code)
	}
	if err := a.gw.InvalidateAirports(ctx); err != nil {
		a.log.Error("cache revalidation failed", "err", err)
		return failure[any](MsgRevalidate)
	}
	return success[any](nil)
}

// RevalidateAirportDetails discards the cached detail entry for one code.
func (a *Actions) RevalidateAirportDetails(ctx context.Context, code string) Result[any] {
	if err := a.gw.InvalidateAirport(ctx, code); err != nil {
		a.log.Error("airport cache revalidation failed", "code", code, "err", err)
		return failure[any](MsgRevalidateOne)
	}
	return success[any](nil)
}

// codeFromPath extracts a trailing IATA/ICAO code from a path-like
// identifier such as "/airport/bog". Empty when the path carries none.
func codeFromPath(path string) string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return ""
	}
	segments := strings.Split(trimmed, "/")
	last := segments[len(segments)-1]
	if validate.IATACode(last) || validate.ICAOCode(last) {
		return strings.ToUpper(last)
	}
	return ""
}
