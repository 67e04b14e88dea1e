// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"strconv"
	"time"
)

// Row is one result row keyed by column name. Column order is not kept;
// names are authoritative.
type Row map[string]any

// Has reports whether the column holds a non-NULL value
func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	return ""
}

func (r Row) NullString(col string) *string {
	if !r.Has(col) {
		return nil
	}
	s := r.String(col)
	return &s
}

func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		// SUM over BIGINT comes back as NUMERIC
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

func (r Row) NullInt64(col string) *int64 {
	if !r.Has(col) {
		return nil
	}
	n := r.Int64(col)
	return &n
}

func (r Row) Int(col string) int {
	return int(r.Int64(col))
}

func (r Row) NullInt(col string) *int {
	if !r.Has(col) {
		return nil
	}
	n := r.Int(col)
	return &n
}

func (r Row) Float64(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

func (r Row) NullFloat64(col string) *float64 {
	if !r.Has(col) {
		return nil
	}
	f := r.Float64(col)
	return &f
}

func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Time returns the column as UTC; the zero time when NULL or not a timestamp
func (r Row) Time(col string) time.Time {
	if t, ok := r[col].(time.Time); ok {
		return t.UTC()
	}
	return time.Time{}
}

func (r Row) NullTime(col string) *time.Time {
	t, ok := r[col].(time.Time)
	if !ok {
		return nil
	}
	t = t.UTC()
	return &t
}
