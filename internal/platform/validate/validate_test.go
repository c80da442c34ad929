// Copyright (c) 2026 Wearmint. All rights reserved.

package validate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/validate"
)

/*
TestValidator_Chain verifies that chained rules collect all failures into a
single validation error.
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}
	err := v.
		Required("name", "").
		MaxLen("description", "this is way too long", 5).
		Range("quantity", 0, 1, 100).
		Err()

	require.Error(t, err)

	var appError *apperr.AppError
	require.True(t, errors.As(err, &appError))
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	assert.Len(t, appError.Details, 3)
}

/*
TestValidator_Pass verifies that a fully valid chain returns nil.
*/
func TestValidator_Pass(t *testing.T) {
	v := &validate.Validator{}
	err := v.
		Required("name", "Genesis").
		UUID("serie_id", "018f7f26-1111-7abc-9def-0123456789ab").
		OneOf("status", "DRAFT", "DRAFT", "ACTIVE").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

/*
TestShortWord verifies the one-alphanumerical-word rule and its messages.
*/
func TestShortWord(t *testing.T) {
	tests := []struct {
		name      string
		shortWord string
		wantMsg   string
	}{
		{name: "empty passes", shortWord: "", wantMsg: ""},
		{name: "alphanumeric passes", shortWord: "Genesis01", wantMsg: ""},
		{name: "space rejected", shortWord: "two words",
			wantMsg: "The short_word must contain only alphanumerical characters"},
		{name: "hyphen rejected", shortWord: "semi-word",
			wantMsg: "The short_word must contain only alphanumerical characters"},
		{name: "too long rejected", shortWord: "abcdefghijklmnopqrstuvwxyz01234",
			wantMsg: "The short_word must be less than or equal to 30 characters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validate.ShortWord(tc.shortWord)
			if tc.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantMsg, err.Error())
		})
	}
}

/*
TestPrice verifies that only negative prices are rejected.
*/
func TestPrice(t *testing.T) {
	negative := -0.01
	zero := 0.0
	positive := 19.99

	assert.NoError(t, validate.Price(nil))
	assert.NoError(t, validate.Price(&zero))
	assert.NoError(t, validate.Price(&positive))

	err := validate.Price(&negative)
	require.Error(t, err)
	assert.Equal(t, "The price must be greater than or equal to 0", err.Error())
}

/*
TestPublishRequired verifies the empty-required-fields message format.
*/
func TestPublishRequired(t *testing.T) {
	assert.NoError(t, validate.PublishRequired(nil))

	err := validate.PublishRequired([]string{"name", "publish_time"})
	require.Error(t, err)
	assert.Equal(t,
		"Some fields required to publish don't have a value: [name, publish_time]",
		err.Error())
}
