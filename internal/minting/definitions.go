// Copyright (c) 2026 Wearmint. All rights reserved.

package minting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/constants"
)

// Enumerations holds the provider's valid value sets for the on-chain
// Edition fields. Edition creation validates design_slot, type, and rarity
// against these.
type Enumerations struct {
	DesignSlots []string `json:"EDITION_DESIGN_SLOT"`
	Types       []string `json:"EDITION_TYPE"`
	Rarities    []string `json:"EDITION_RARITY"`
}

// Definitions fetches and caches the provider's enumeration sets.
//
// The sets change only when the provider ships schema updates, so they are
// cached in Redis with a TTL instead of being fetched on every Edition
// mutation.
type Definitions struct {
	client *Client
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewDefinitions builds the enumeration definitions source.
func NewDefinitions(client *Client, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Definitions {
	return &Definitions{client: client, cache: cache, ttl: ttl, logger: logger}
}

const enumCacheKey = constants.RedisPrefixEnumDefinitions + "all"

// Enumerations returns the provider's enumeration sets, preferring the cache.
func (definitions *Definitions) Enumerations(ctx context.Context) (*Enumerations, error) {

	// 1. Cache hit path
	cached, err := definitions.cache.Get(ctx, enumCacheKey).Bytes()
	if err == nil {
		var sets Enumerations
		if unmarshalErr := json.Unmarshal(cached, &sets); unmarshalErr == nil {
			return &sets, nil
		}
		// A corrupt entry falls through to a fresh fetch.
	} else if err != redis.Nil {
		definitions.logger.WarnContext(ctx, "enum_cache_read_failed", slog.Any("error", err))
	}

	// 2. Fetch from the provider
	sets, err := definitions.fetch(ctx)
	if err != nil {
		return nil, err
	}

	// 3. Populate the cache; a write failure is not fatal
	payload, err := json.Marshal(sets)
	if err == nil {
		if cacheErr := definitions.cache.Set(ctx, enumCacheKey, payload, definitions.ttl).Err(); cacheErr != nil {
			definitions.logger.WarnContext(ctx, "enum_cache_write_failed", slog.Any("error", cacheErr))
		}
	}

	return sets, nil
}

// fetch queries all three enumeration types in a single GraphQL document.
func (definitions *Definitions) fetch(ctx context.Context) (*Enumerations, error) {
	sets := &Enumerations{}

	queries := []struct {
		name   string
		target *[]string
	}{
		{name: "EDITION_DESIGN_SLOT", target: &sets.DesignSlots},
		{name: "EDITION_TYPE", target: &sets.Types},
		{name: "EDITION_RARITY", target: &sets.Rarities},
	}

	for _, q := range queries {
		values, err := definitions.fetchEnumeration(ctx, q.name)
		if err != nil {
			return nil, err
		}
		*q.target = values
	}

	return sets, nil
}

// fetchEnumeration resolves one enumeration type via GraphQL introspection.
func (definitions *Definitions) fetchEnumeration(ctx context.Context, name string) ([]string, error) {
	// The provider exposes enumerations as PascalCase GraphQL enum types.
	document := fmt.Sprintf(
		`query{%s: __type(name: %q){enumValues{name}}}`,
		name, snakeToPascal(name),
	)

	var result struct {
		EnumValues []struct {
			Name string `json:"name"`
		} `json:"enumValues"`
	}
	if err := definitions.client.exec(ctx, document, name, &result); err != nil {
		return nil, err
	}

	if len(result.EnumValues) == 0 {
		return nil, apperr.Upstream(upstreamName, fmt.Errorf("enumeration %s is empty", name))
	}

	values := make([]string, len(result.EnumValues))
	for i, v := range result.EnumValues {
		values[i] = v.Name
	}
	return values, nil
}

// snakeToPascal converts UPPER_SNAKE names to the provider's PascalCase
// type names (EDITION_DESIGN_SLOT -> EditionDesignSlot).
func snakeToPascal(value string) string {
	out := make([]byte, 0, len(value))
	upper := true
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper {
			out = append(out, c)
			upper = false
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
