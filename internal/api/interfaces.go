package api

import (
	"context"

	"github.com/aeronav/airport-finder/internal/actions"
	"github.com/aeronav/airport-finder/internal/aviation"
)

// AirportActions defines the action-layer operations the handlers consume.
// Satisfied by *actions.Actions; mocked in tests.
type AirportActions interface {
	GetAirports(ctx context.Context, page, limit int) actions.Result[aviation.AirportsResponse]
	GetAirportDetails(ctx context.Context, code string) actions.Result[aviation.Airport]
	SearchAirports(ctx context.Context, query string, page, limit int) actions.Result[aviation.AirportsResponse]
	GetAirportsByPage(ctx context.Context, params actions.PageParams) actions.Result[aviation.AirportsResponse]
	RevalidateAirports(ctx context.Context, path string) actions.Result[any]
	RevalidateAirportDetails(ctx context.Context, code string) actions.Result[any]
}
