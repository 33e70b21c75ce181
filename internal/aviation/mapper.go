package aviation

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// unknownAirportName is the sentinel for records the upstream returns
// without a display name.
const unknownAirportName = "Unknown Airport"

// phoneNotAvailable is the sentinel shown when the upstream record has no
// phone number.
const phoneNotAvailable = "No disponible"

// MapAirport normalizes one raw record. The second return value is false for
// records carrying neither an IATA nor an ICAO code: those are dropped
// rather than given a fabricated identity, so the same upstream record maps
// to the same Airport on every fetch and de-duplication stays stable.
func MapAirport(raw RawAirport) (Airport, bool) {
	iata := strings.TrimSpace(raw.IATACode)
	icao := strings.TrimSpace(raw.ICAOCode)
	if iata == "" && icao == "" {
		return Airport{}, false
	}

	id := iata
	if id == "" {
		id = icao
	}

	name := strings.TrimSpace(raw.AirportName)
	if name == "" {
		name = unknownAirportName
	}

	phone := strings.TrimSpace(string(raw.PhoneNumber))
	if phone == "" {
		phone = phoneNotAvailable
	}

	return Airport{
		ID:           id,
		Name:         name,
		IATACode:     iata,
		ICAOCode:     icao,
		Latitude:     float64(raw.Latitude),
		Longitude:    float64(raw.Longitude),
		GeonameID:    string(raw.GeonameID),
		Timezone:     raw.Timezone,
		GMT:          string(raw.GMT),
		PhoneNumber:  phone,
		CountryName:  raw.CountryName,
		CountryISO2:  raw.CountryISO2,
		CityIATACode: raw.CityIATACode,
	}, true
}

// MapAirportsResponse maps the pagination block and every valid item,
// preserving upstream order.
func MapAirportsResponse(raw RawResponse) AirportsResponse {
	airports := make([]Airport, 0, len(raw.Data))
	for _, r := range raw.Data {
		if a, ok := MapAirport(r); ok {
			airports = append(airports, a)
		}
	}
	return AirportsResponse{Pagination: raw.Pagination, Data: airports}
}

// MapSingleAirport returns the first mapped item, or nil when the raw
// collection is empty or its first record is invalid.
func MapSingleAirport(raw RawResponse) *Airport {
	if len(raw.Data) == 0 {
		return nil
	}
	a, ok := MapAirport(raw.Data[0])
	if !ok {
		return nil
	}
	return &a
}

// RemoveDuplicates keeps the first occurrence per key, where the key is the
// IATA code when present, else the ICAO code. A single left-to-right pass.
func RemoveDuplicates(airports []Airport) []Airport {
	seen := make(map[string]struct{}, len(airports))
	out := make([]Airport, 0, len(airports))
	for _, a := range airports {
		key := a.IATACode
		if key == "" {
			key = a.ICAOCode
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// SortByName returns a copy sorted alphabetically by display name using
// Unicode collation. The input is not mutated.
func SortByName(airports []Airport) []Airport {
	out := make([]Airport, len(airports))
	copy(out, airports)

	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}
