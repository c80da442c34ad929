// Copyright (c) 2026 Wearmint. All rights reserved.

package api

import (
	"net/http"

	"github.com/wearmint/catalog/internal/minting"
	"github.com/wearmint/catalog/internal/platform/respond"
)

// NewEnumerationsHandler serves the provider-defined enumeration sets used
// to validate edition metadata (design slots, types, rarities).
func NewEnumerationsHandler(definitions *minting.Definitions) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		enumerations, err := definitions.Enumerations(request.Context())
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, enumerations)
	}
}
