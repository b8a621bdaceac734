/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"fmt"
	"reflect"
	"sort"
)

// Row is a single table row keyed by column name. It is an alias so that Bun
// scans into and writes from it as a plain map model.
type Row = map[string]interface{}

// Filter is an equality predicate: every column must equal its value. A nil
// value matches NULL.
type Filter = map[string]interface{}

// CloneRow returns a shallow copy of row.
func CloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// SortedKeys returns the keys of m in ascending order so that generated SQL is
// stable across calls.
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Columns returns the sorted union of the keys of rows.
func Columns(rows []Row) []string {
	seen := make(map[string]interface{})
	for _, row := range rows {
		for k := range row {
			seen[k] = nil
		}
	}
	return SortedKeys(seen)
}

// Pluck collects row[column] for every row, preserving order.
func Pluck(rows []Row, column string) []interface{} {
	values := make([]interface{}, len(rows))
	for i, row := range rows {
		values[i] = row[column]
	}
	return values
}

// KeyOf renders a column value as a comparable group key. Drivers hand back
// text as []byte and integers as int64, so values are compared in their
// string form.
func KeyOf(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// GroupBy buckets rows by the string form of row[column].
func GroupBy(rows []Row, column string) map[string][]Row {
	groups := make(map[string][]Row, len(rows))
	for _, row := range rows {
		k := KeyOf(row[column])
		groups[k] = append(groups[k], row)
	}
	return groups
}

// Truthy reports whether v holds a usable value: not nil, not an empty
// string, not false and not a numeric zero.
func Truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && f == f
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
