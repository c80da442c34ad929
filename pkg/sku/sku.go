// Copyright (c) 2026 Wearmint. All rights reserved.

/*
Package sku manipulates wearable SKU strings.

A wearable SKU has four hyphen-separated segments:

	{year}-{serie}-{collection}-{asset}

The serie, collection, and asset segments are the short_words of the owning
entities. When a short_word changes before any Edition is published, the
corresponding segment of every draft Edition's SKU must be replaced in place.
*/
package sku

import "strings"

// Segment identifies which part of a SKU a short_word belongs to.
type Segment int

const (
	SegmentSerie Segment = iota + 1
	SegmentCollection
	SegmentAsset
)

// segmentCount is the number of hyphen-separated parts in a well-formed SKU.
const segmentCount = 4

// Replace swaps the given segment of the SKU for the new short_word.
// Malformed SKUs (wrong segment count) are returned unchanged.
func Replace(value string, segment Segment, shortWord string) string {
	parts := strings.Split(value, "-")
	if len(parts) != segmentCount {
		return value
	}

	index := int(segment)
	if index < 1 || index >= segmentCount {
		return value
	}

	parts[index] = shortWord
	return strings.Join(parts, "-")
}
