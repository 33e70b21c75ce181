package aviation

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/aeronav/airport-finder/internal/validate"
)

// QueryParams are the caller-facing list query options. The upstream API
// natively supports limit, offset and the three code filters; Search,
// CityIATACode and AirportName are applied client-side after fetching a
// superset.
type QueryParams struct {
	Limit  int
	Offset int

	IATACode    string
	ICAOCode    string
	CountryISO2 string

	Search       string
	CityIATACode string
	AirportName  string
}

// normalized clamps pagination and case-folds codes. It never fails: every
// input maps to a usable parameter set.
func (p QueryParams) normalized() QueryParams {
	out := p

	if out.Limit != 0 {
		out.Limit = validate.Limit(out.Limit)
	}
	if out.Offset < 0 {
		out.Offset = 0
	}

	out.IATACode = strings.ToUpper(strings.TrimSpace(out.IATACode))
	out.ICAOCode = strings.ToUpper(strings.TrimSpace(out.ICAOCode))
	out.CountryISO2 = strings.ToUpper(strings.TrimSpace(out.CountryISO2))
	out.CityIATACode = strings.ToUpper(strings.TrimSpace(out.CityIATACode))
	out.Search = strings.TrimSpace(out.Search)
	out.AirportName = strings.TrimSpace(out.AirportName)

	return out
}

// upstream returns only the parameters the upstream API accepts, as strings,
// omitting zero values.
func (p QueryParams) upstream() map[string]string {
	params := make(map[string]string)
	if p.Limit > 0 {
		params["limit"] = strconv.Itoa(p.Limit)
	}
	if p.Offset > 0 {
		params["offset"] = strconv.Itoa(p.Offset)
	}
	if p.IATACode != "" {
		params["iata_code"] = p.IATACode
	}
	if p.ICAOCode != "" {
		params["icao_code"] = p.ICAOCode
	}
	if p.CountryISO2 != "" {
		params["country_iso2"] = p.CountryISO2
	}
	return params
}

// buildURL assembles the full upstream URL with the access key injected as a
// query parameter, the way the API authenticates.
func buildURL(baseURL, endpoint, accessKey string, params map[string]string) string {
	values := url.Values{}
	values.Set("access_key", accessKey)
	for name, value := range params {
		if value != "" {
			values.Set(name, value)
		}
	}
	return baseURL + endpoint + "?" + values.Encode()
}
