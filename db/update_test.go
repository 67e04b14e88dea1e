// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateBuilder(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *UpdateBuilder
		wantQuery string
		wantArgs  []any
	}{
		{
			name: "single column",
			build: func() *UpdateBuilder {
				return Update("users").Set("kendo_rank", "2dan")
			},
			wantQuery: "UPDATE users SET kendo_rank = $1 WHERE id = $2",
			wantArgs:  []any{"2dan", "user-1"},
		},
		{
			name: "mixed set and now",
			build: func() *UpdateBuilder {
				return Update("users").
					Set("nickname", "kenshi").
					SetNow("nickname_last_changed").
					Set("kendo_experience_years", 3)
			},
			wantQuery: "UPDATE users SET nickname = $1, nickname_last_changed = NOW(), kendo_experience_years = $2 WHERE id = $3",
			wantArgs:  []any{"kenshi", 3, "user-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := tt.build().Build("id", "user-1")
			assert.Equal(t, tt.wantQuery, q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestUpdateBuilder_Empty(t *testing.T) {
	b := Update("users")
	assert.True(t, b.Empty())

	b.SetNow("updated_at")
	assert.False(t, b.Empty())
}

func TestUpdateBuilder_BuildDoesNotAlias(t *testing.T) {
	b := Update("users").Set("name", "a")

	_, first := b.Build("id", "x")
	_, second := b.Build("id", "y")

	assert.Equal(t, []any{"a", "x"}, first)
	assert.Equal(t, []any{"a", "y"}, second)
}
