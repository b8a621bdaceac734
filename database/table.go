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

package database

import (
	"strings"

	"github.com/tomoncle/tablerepo/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Table is an unexecuted query handle scoped to one table. Every method
// returns a fresh Bun query; nothing touches the database until the query is
// executed.
//
// A handle built from an unconnected Provider carries an error wrapping
// ErrConnection. Callers check Err before building queries.
type Table struct {
	db   bun.IDB
	name string
	err  error
}

// NewTable binds name to db, which may be a *bun.DB, bun.Conn or bun.Tx.
func NewTable(db bun.IDB, name string) *Table {
	return &Table{db: db, name: name}
}

func (t *Table) Name() string { return t.name }

func (t *Table) DB() bun.IDB { return t.db }

// Err reports why the handle cannot issue queries, or nil.
func (t *Table) Err() error { return t.err }

func (t *Table) Dialect() schema.Dialect { return t.db.Dialect() }

// Transacting returns a copy of the handle whose statements run on tx.
func (t *Table) Transacting(tx bun.IDB) *Table {
	return &Table{db: tx, name: t.name}
}

func (t *Table) Select() *bun.SelectQuery {
	return t.db.NewSelect().TableExpr("?", bun.Ident(t.name))
}

// Insert writes rows with one multi-row INSERT. The column list is the sorted
// union of the rows' keys and a row lacking a column inserts NULL there.
func (t *Table) Insert(rows []types.Row) *bun.RawQuery {
	columns := types.Columns(rows)
	args := make([]interface{}, 0, 1+len(columns)*(len(rows)+1))
	args = append(args, bun.Ident(t.name))

	var b strings.Builder
	b.WriteString("INSERT INTO ? (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
		args = append(args, bun.Ident(col))
	}
	b.WriteString(") VALUES ")
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, col := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('?')
			args = append(args, row[col])
		}
		b.WriteByte(')')
	}
	return t.db.NewRaw(b.String(), args...)
}

func (t *Table) Update(set *types.Row) *bun.UpdateQuery {
	return t.db.NewUpdate().Model(set).TableExpr("?", bun.Ident(t.name))
}

func (t *Table) Delete() *bun.DeleteQuery {
	return t.db.NewDelete().TableExpr("?", bun.Ident(t.name))
}
