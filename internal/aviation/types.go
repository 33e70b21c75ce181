package aviation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Airport is the normalized domain record. It is built once per upstream
// record at mapping time and never mutated afterwards.
type Airport struct {
	ID           string  `json:"id"`
	Name         string  `json:"airport_name"`
	IATACode     string  `json:"iata_code"`
	ICAOCode     string  `json:"icao_code"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	GeonameID    string  `json:"geoname_id"`
	Timezone     string  `json:"timezone"`
	GMT          string  `json:"gmt"`
	PhoneNumber  string  `json:"phone_number"`
	CountryName  string  `json:"country_name"`
	CountryISO2  string  `json:"country_iso2"`
	CityIATACode string  `json:"city_iata_code"`
}

// Pagination mirrors the upstream pagination block. For client-side filtered
// or sliced results, Count and Total are recomputed while Limit and Offset
// stay as requested.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
	Total  int `json:"total"`
}

// AirportsResponse pairs a pagination record with an ordered list of
// airports. Order is upstream insertion order unless explicitly sorted.
type AirportsResponse struct {
	Pagination Pagination `json:"pagination"`
	Data       []Airport  `json:"data"`
}

// RawNumber is a float64 that also accepts a JSON string, because the
// upstream API returns coordinates either way.
type RawNumber float64

func (n *RawNumber) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 1 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing %q as number: %w", s, err)
		}
		*n = RawNumber(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = RawNumber(f)
	return nil
}

// RawString is a string that also accepts a JSON number or null.
type RawString string

func (s *RawString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 1 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = RawString(v)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = RawString(num.String())
	return nil
}

// RawAirport is one record as the upstream API returns it.
type RawAirport struct {
	AirportName  string    `json:"airport_name"`
	IATACode     string    `json:"iata_code"`
	ICAOCode     string    `json:"icao_code"`
	Latitude     RawNumber `json:"latitude"`
	Longitude    RawNumber `json:"longitude"`
	GeonameID    RawString `json:"geoname_id"`
	Timezone     string    `json:"timezone"`
	GMT          RawString `json:"gmt"`
	PhoneNumber  RawString `json:"phone_number"`
	CountryName  string    `json:"country_name"`
	CountryISO2  string    `json:"country_iso2"`
	CityIATACode string    `json:"city_iata_code"`
}

// RawResponse is the upstream collection envelope.
type RawResponse struct {
	Pagination Pagination   `json:"pagination"`
	Data       []RawAirport `json:"data"`
}
