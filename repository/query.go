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
	"context"
	"database/sql"
	"errors"

	"github.com/tomoncle/tablerepo/types"
	"github.com/uptrace/bun"
)

// Query is a lazy SELECT against the repository table. Nothing is sent to
// the database until All, First or Count runs. A Query built without a
// usable connection returns that error from every executing method.
type Query struct {
	q   *bun.SelectQuery
	err error
}

func newQuery(q *bun.SelectQuery) *Query {
	return &Query{q: q}
}

func failedQuery(err error) *Query {
	return &Query{err: err}
}

// Err reports the error that prevents the query from running, or nil.
func (q *Query) Err() error { return q.err }

func (q *Query) apply(fn func(bun.QueryBuilder) bun.QueryBuilder) *Query {
	if q.err == nil {
		q.q = q.q.ApplyQueryBuilder(fn)
	}
	return q
}

// Where narrows the query with an equality filter.
func (q *Query) Where(filter types.Filter) *Query {
	return q.apply(whereEq(filter))
}

func (q *Query) OrderBy(column string, desc bool) *Query {
	if q.err != nil {
		return q
	}
	if desc {
		q.q = q.q.OrderExpr("? DESC", bun.Ident(column))
	} else {
		q.q = q.q.OrderExpr("? ASC", bun.Ident(column))
	}
	return q
}

func (q *Query) Limit(n int) *Query {
	if q.err == nil {
		q.q = q.q.Limit(n)
	}
	return q
}

// SelectQuery exposes the underlying Bun query for clauses Query lacks. It is
// nil when Err is set.
func (q *Query) SelectQuery() *bun.SelectQuery {
	return q.q
}

func (q *Query) String() string {
	if q.err != nil {
		return ""
	}
	return q.q.String()
}

// All executes the query and returns every row. An empty result is an empty
// slice, not an error.
func (q *Query) All(ctx context.Context) ([]types.Row, error) {
	if q.err != nil {
		return nil, q.err
	}
	rows := make([]types.Row, 0)
	if err := q.q.Scan(ctx, &rows); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return rows, nil
}

// First executes the query limited to one row. It returns a nil row when
// nothing matches.
func (q *Query) First(ctx context.Context) (types.Row, error) {
	rows, err := q.Limit(1).All(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (q *Query) Count(ctx context.Context) (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	return q.q.Count(ctx)
}

// Paginate counts every match, then loads the rows of the requested page.
func (q *Query) Paginate(ctx context.Context, req types.PageRequest) (*types.Pagination, error) {
	if q.err != nil {
		return nil, q.err
	}
	page := types.NewPagination(req)
	total, err := q.q.Count(ctx)
	if err != nil {
		return nil, err
	}
	page.Total = total
	if total == 0 {
		return page, nil
	}
	q.q = q.q.Limit(page.PageSize).Offset(req.GetOffset())
	if page.Items, err = q.All(ctx); err != nil {
		return nil, err
	}
	return page, nil
}

// whereEq ANDs column = value for every filter entry; nil matches NULL.
func whereEq(filter types.Filter) func(bun.QueryBuilder) bun.QueryBuilder {
	return func(qb bun.QueryBuilder) bun.QueryBuilder {
		for _, col := range types.SortedKeys(filter) {
			if v := filter[col]; v == nil {
				qb = qb.Where("? IS NULL", bun.Ident(col))
			} else {
				qb = qb.Where("? = ?", bun.Ident(col), v)
			}
		}
		return qb
	}
}

// whereNot negates each filter entry on its own and ANDs the results.
func whereNot(filter types.Filter) func(bun.QueryBuilder) bun.QueryBuilder {
	return func(qb bun.QueryBuilder) bun.QueryBuilder {
		for _, col := range types.SortedKeys(filter) {
			if v := filter[col]; v == nil {
				qb = qb.Where("? IS NOT NULL", bun.Ident(col))
			} else {
				qb = qb.Where("NOT (? = ?)", bun.Ident(col), v)
			}
		}
		return qb
	}
}

// whereIn matches column against values. An empty set matches nothing.
func whereIn(column string, values []interface{}) func(bun.QueryBuilder) bun.QueryBuilder {
	return func(qb bun.QueryBuilder) bun.QueryBuilder {
		if len(values) == 0 {
			return qb.Where("1 = 0")
		}
		return qb.Where("? IN (?)", bun.Ident(column), bun.In(values))
	}
}
