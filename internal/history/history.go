// Package history keeps the user's recent searches in a client-side cookie:
// a JSON array, base64-encoded for cookie safety, capped at the ten most
// recent entries, deduplicated by case-insensitive query text and ordered
// newest-first. The server holds no copy; the cookie is the whole store.
package history

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	// CookieName is the cookie carrying the encoded history.
	CookieName = "search_history"
	// MaxItems caps the list at the most recent entries.
	MaxItems = 10

	cookieMaxAge = 30 * 24 * time.Hour
)

// ErrEmptyQuery is returned when an empty search is saved.
var ErrEmptyQuery = errors.New("la búsqueda no puede estar vacía")

// Item is one remembered search.
type Item struct {
	ID           string `json:"id"`
	Query        string `json:"query"`
	Timestamp    int64  `json:"timestamp"`
	ResultsCount int    `json:"resultsCount"`
}

// QueryCount pairs a query with how often it appears in the history.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// FromRequest decodes the history cookie, newest first. A missing or
// undecodable cookie yields an empty list, never an error: history is
// best-effort state.
func FromRequest(r *http.Request) []Item {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	raw, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})
	return items
}

func write(w http.ResponseWriter, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling search history: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.URLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Save records a search and its result count, dropping any previous entry
// with the same query (case-insensitive) and trimming to MaxItems.
func Save(w http.ResponseWriter, r *http.Request, query string, resultsCount int) (Item, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return Item{}, ErrEmptyQuery
	}

	now := time.Now()
	item := Item{
		ID:           fmt.Sprintf("%d-%s", now.UnixMilli(), randomSuffix()),
		Query:        trimmed,
		Timestamp:    now.UnixMilli(),
		ResultsCount: resultsCount,
	}

	current := FromRequest(r)
	updated := make([]Item, 0, len(current)+1)
	updated = append(updated, item)
	for _, it := range current {
		if strings.EqualFold(it.Query, trimmed) {
			continue
		}
		updated = append(updated, it)
	}
	if len(updated) > MaxItems {
		updated = updated[:MaxItems]
	}

	if err := write(w, updated); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Delete removes the entry with the given id and returns the updated list.
func Delete(w http.ResponseWriter, r *http.Request, id string) ([]Item, error) {
	current := FromRequest(r)
	updated := make([]Item, 0, len(current))
	for _, it := range current {
		if it.ID != id {
			updated = append(updated, it)
		}
	}
	if err := write(w, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Clear drops the whole history by expiring the cookie.
func Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// MostFrequent returns up to limit queries ordered by how often they occur,
// counting case-insensitively.
func MostFrequent(items []Item, limit int) []QueryCount {
	counts := make(map[string]int, len(items))
	for _, it := range items {
		counts[strings.ToLower(it.Query)]++
	}

	out := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		out = append(out, QueryCount{Query: query, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Recent returns up to limit of the newest items. The input from
// FromRequest is already newest-first.
func Recent(items []Item, limit int) []Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// Contains reports whether query is already in the history,
// case-insensitively.
func Contains(items []Item, query string) bool {
	trimmed := strings.TrimSpace(query)
	for _, it := range items {
		if strings.EqualFold(it.Query, trimmed) {
			return true
		}
	}
	return false
}

func randomSuffix() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "0000"
	}
	return hex.EncodeToString(b)
}
