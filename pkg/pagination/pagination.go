// Copyright (c) 2026 Wearmint. All rights reserved.

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// It standardizes how page-based navigation and sort order are requested via
// query parameters and how the resulting metadata is delivered in the API
// response envelope.
package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 20
	// MaxLimit is the upper bound for items per page to prevent system abuse.
	MaxLimit = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1

	// OrderAsc and OrderDesc are the accepted sort directions.
	OrderAsc  = "asc"
	OrderDesc = "desc"

	// DefaultOrderBy sorts newest-first unless the caller says otherwise.
	DefaultOrderBy = "created_at"
)

// Params holds the parsed page, limit, and sort from a request's query string.
type Params struct {
	Page    int
	Limit   int
	Order   string
	OrderBy string
}

// Offset returns the SQL OFFSET value derived from [Page] and [Limit].
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta constructs pagination metadata for a response.
//
// It automatically calculates the TotalPages based on the total count and limit.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// FromRequest parses "page", "limit", "order", and "order_by" query
// parameters from an HTTP request.
//
// # Clamping
//
// Invalid, negative, or excessive values are automatically clamped to
// [DefaultPage], [DefaultLimit], or [MaxLimit]. The sortable parameter
// whitelists its column names: anything outside sortable falls back to
// [DefaultOrderBy], so user input never reaches the SQL ORDER BY clause
// unchecked.
func FromRequest(r *http.Request, sortable ...string) Params {
	page := parseIntParam(r, "page", DefaultPage)
	limit := parseIntParam(r, "limit", DefaultLimit)

	if page < 1 {
		page = DefaultPage
	}

	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	order := strings.ToLower(r.URL.Query().Get("order"))
	if order != OrderAsc && order != OrderDesc {
		order = OrderDesc
	}

	orderBy := parseOrderBy(r.URL.Query().Get("order_by"), sortable)

	return Params{Page: page, Limit: limit, Order: order, OrderBy: orderBy}
}

// parseOrderBy validates the requested sort column against the whitelist.
func parseOrderBy(requested string, sortable []string) string {
	if requested == "" {
		return DefaultOrderBy
	}
	for _, column := range sortable {
		if requested == column {
			return requested
		}
	}
	return DefaultOrderBy
}

// parseIntParam parses a single integer query parameter with a fallback default.
func parseIntParam(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}

	return n
}
