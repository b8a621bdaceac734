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

package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/tablerepo/database"
	"github.com/tomoncle/tablerepo/types"
)

const (
	defaultCreatedAtColumn = "createdAt"
	defaultUpdatedAtColumn = "updatedAt"
	defaultPKColumn        = "id"
)

// Config fixes the table a repository works on and how it treats rows.
type Config struct {
	// Table is the target table name.
	Table string
	// PK is the primary key column. When empty no key is injected on insert.
	PK string
	// StrictModel makes inserts reject rows for which Entity returns false.
	StrictModel bool
	// Entity reports whether a row has the shape stored in Table.
	Entity func(types.Row) bool
	// NewID generates keys for rows inserted without one.
	NewID func() string
	// CreatedAtColumn orders FindLastOne and FindLastOneBy.
	CreatedAtColumn string
	// UpdatedAtColumn is stamped by every update.
	UpdatedAtColumn string
	Now             func() time.Time
	Logger          database.Logger
}

func (c Config) withDefaults() Config {
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	if c.CreatedAtColumn == "" {
		c.CreatedAtColumn = defaultCreatedAtColumn
	}
	if c.UpdatedAtColumn == "" {
		c.UpdatedAtColumn = defaultUpdatedAtColumn
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = database.GetLogger()
	}
	return c
}

// HasColumns returns an Entity check accepting rows that carry every column.
func HasColumns(columns ...string) func(types.Row) bool {
	return func(row types.Row) bool {
		if row == nil {
			return false
		}
		for _, col := range columns {
			if _, ok := row[col]; !ok {
				return false
			}
		}
		return true
	}
}
