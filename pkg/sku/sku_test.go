// Copyright (c) 2026 Wearmint. All rights reserved.

package sku_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wearmint/catalog/pkg/sku"
)

/*
TestReplace verifies per-segment replacement and malformed-input safety.
*/
func TestReplace(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		segment   sku.Segment
		shortWord string
		want      string
	}{
		{
			name:      "serie segment",
			value:     "2026-Genesis-Launch-Hoodie",
			segment:   sku.SegmentSerie,
			shortWord: "Origins",
			want:      "2026-Origins-Launch-Hoodie",
		},
		{
			name:      "collection segment",
			value:     "2026-Genesis-Launch-Hoodie",
			segment:   sku.SegmentCollection,
			shortWord: "Summer",
			want:      "2026-Genesis-Summer-Hoodie",
		},
		{
			name:      "asset segment",
			value:     "2026-Genesis-Launch-Hoodie",
			segment:   sku.SegmentAsset,
			shortWord: "Jacket",
			want:      "2026-Genesis-Launch-Jacket",
		},
		{
			name:      "malformed sku unchanged",
			value:     "not-a-sku",
			segment:   sku.SegmentSerie,
			shortWord: "Origins",
			want:      "not-a-sku",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sku.Replace(tc.value, tc.segment, tc.shortWord))
		})
	}
}
