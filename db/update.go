// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"fmt"
	"strings"
)

// UpdateBuilder assembles a partial UPDATE from a fixed set of column
// descriptors. Column names come from handler code, never from request
// input; values always travel as bind parameters.
type UpdateBuilder struct {
	table string
	sets  []string
	args  []any
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Set adds "column = $n"
func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.args = append(b.args, value)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
	return b
}

// SetNow adds "column = NOW()"
func (b *UpdateBuilder) SetNow(column string) *UpdateBuilder {
	b.sets = append(b.sets, column+" = NOW()")
	return b
}

// Empty reports whether no column has been set
func (b *UpdateBuilder) Empty() bool {
	return len(b.sets) == 0
}

// Build renders the statement with a single equality filter
func (b *UpdateBuilder) Build(whereColumn string, whereValue any) (string, []any) {
	args := append(append([]any{}, b.args...), whereValue)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		b.table, strings.Join(b.sets, ", "), whereColumn, len(args))
	return query, args
}
