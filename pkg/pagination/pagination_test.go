// Copyright (c) 2026 Wearmint. All rights reserved.

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wearmint/catalog/pkg/pagination"
)

/*
TestFromRequest_Defaults verifies clamping of absent and invalid parameters.
*/
func TestFromRequest_Defaults(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantPage  int
		wantLimit int
		wantOrder string
	}{
		{name: "no params", url: "/series", wantPage: 1, wantLimit: 20, wantOrder: "desc"},
		{name: "negative page", url: "/series?page=-2", wantPage: 1, wantLimit: 20, wantOrder: "desc"},
		{name: "oversized limit", url: "/series?limit=9999", wantPage: 1, wantLimit: 20, wantOrder: "desc"},
		{name: "explicit asc", url: "/series?order=ASC", wantPage: 1, wantLimit: 20, wantOrder: "asc"},
		{name: "garbage order", url: "/series?order=sideways", wantPage: 1, wantLimit: 20, wantOrder: "desc"},
		{name: "valid params", url: "/series?page=3&limit=50", wantPage: 3, wantLimit: 50, wantOrder: "desc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", tc.url, nil)
			params := pagination.FromRequest(request, "name", "publish_time")

			assert.Equal(t, tc.wantPage, params.Page)
			assert.Equal(t, tc.wantLimit, params.Limit)
			assert.Equal(t, tc.wantOrder, params.Order)
		})
	}
}

/*
TestFromRequest_OrderByWhitelist verifies that only whitelisted columns pass.
*/
func TestFromRequest_OrderByWhitelist(t *testing.T) {
	request := httptest.NewRequest("GET", "/series?order_by=publish_time", nil)
	params := pagination.FromRequest(request, "name", "publish_time")
	assert.Equal(t, "publish_time", params.OrderBy)

	request = httptest.NewRequest("GET", "/series?order_by=password;DROP", nil)
	params = pagination.FromRequest(request, "name", "publish_time")
	assert.Equal(t, pagination.DefaultOrderBy, params.OrderBy)
}

/*
TestOffset verifies the OFFSET math for 1-indexed pages.
*/
func TestOffset(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, pagination.Params{Page: 3, Limit: 20}.Offset())
}

/*
TestNewMeta verifies total-pages rounding.
*/
func TestNewMeta(t *testing.T) {
	meta := pagination.NewMeta(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 41, meta.Total)

	empty := pagination.NewMeta(1, 20, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
