// Package validate normalizes and validates query input before it reaches
// the aviationstack gateway. Every check here runs without touching the
// network; validation failures short-circuit a request entirely.
package validate

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Pagination bounds for list queries.
const (
	MinLimit     = 1
	MaxLimit     = 100
	DefaultLimit = 6
)

// Search query length bounds.
const (
	MinQueryLength = 2
	MaxQueryLength = 100
)

var (
	ErrEmptyQuery    = errors.New("el término de búsqueda no puede estar vacío")
	ErrQueryTooShort = fmt.Errorf("el término de búsqueda debe tener al menos %d caracteres", MinQueryLength)
	ErrQueryTooLong  = fmt.Errorf("el término de búsqueda no puede exceder %d caracteres", MaxQueryLength)
)

var (
	iataPattern    = regexp.MustCompile(`^[A-Z]{3}$`)
	icaoPattern    = regexp.MustCompile(`^[A-Z]{4}$`)
	iso2Pattern    = regexp.MustCompile(`^[A-Z]{2}$`)
	nonWordPattern = regexp.MustCompile(`[^\w\s-]`)
	spacesPattern  = regexp.MustCompile(`\s+`)
)

// PageNumber clamps page into [1, totalPages]. It is total: any input,
// including zero, negative, or a totalPages of zero, normalizes to a usable
// page number rather than an error.
func PageNumber(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages >= 1 && page > totalPages {
		return totalPages
	}
	return page
}

// Limit clamps a requested page size into [MinLimit, MaxLimit]. A
// non-positive request falls back to DefaultLimit.
func Limit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// IATACode reports whether code is a 3-letter IATA code after case-folding.
func IATACode(code string) bool {
	return iataPattern.MatchString(strings.ToUpper(code))
}

// ICAOCode reports whether code is a 4-letter ICAO code after case-folding.
func ICAOCode(code string) bool {
	return icaoPattern.MatchString(strings.ToUpper(code))
}

// CountryISO2 reports whether code is a 2-letter ISO 3166-1 alpha-2 code
// after case-folding.
func CountryISO2(code string) bool {
	return iso2Pattern.MatchString(strings.ToUpper(code))
}

// SearchQuery checks the trimmed query against the length bounds.
func SearchQuery(query string) error {
	trimmed := strings.TrimSpace(query)

	switch {
	case len(trimmed) == 0:
		return ErrEmptyQuery
	case len(trimmed) < MinQueryLength:
		return ErrQueryTooShort
	case len(trimmed) > MaxQueryLength:
		return ErrQueryTooLong
	}
	return nil
}

// SanitizeSearchQuery strips characters outside word/space/hyphen, collapses
// whitespace runs, and truncates to MaxQueryLength.
func SanitizeSearchQuery(query string) string {
	s := strings.TrimSpace(query)
	s = nonWordPattern.ReplaceAllString(s, "")
	s = spacesPattern.ReplaceAllString(s, " ")
	if len(s) > MaxQueryLength {
		s = s[:MaxQueryLength]
	}
	return s
}

// Coordinates checks that lat/lng are real numbers within geographic bounds.
func Coordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return errors.New("las coordenadas deben ser números válidos")
	}
	if lat < -90 || lat > 90 {
		return errors.New("la latitud debe estar entre -90 y 90")
	}
	if lng < -180 || lng > 180 {
		return errors.New("la longitud debe estar entre -180 y 180")
	}
	return nil
}
