// Package handler contains the REST endpoint implementations. Each
// handler declares the narrow service interface it needs.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dmeltzer/linesight/internal/domain"
)

// writeJSON marshals v and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseListOpts extracts sport, limit, and offset query parameters.
// Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:    limit,
		Offset:   offset,
		SportKey: q.Get("sport"),
	}
}

// parseMarket reads the market query parameter. Empty means every
// market; anything else must name a known one.
func parseMarket(r *http.Request) (domain.MarketKind, bool) {
	switch v := r.URL.Query().Get("market"); v {
	case "":
		return "", true
	case string(domain.MarketMoneyline):
		return domain.MarketMoneyline, true
	case string(domain.MarketSpread):
		return domain.MarketSpread, true
	default:
		return "", false
	}
}
