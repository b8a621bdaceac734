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
	"fmt"
	"sync/atomic"

	"github.com/tomoncle/tablerepo/database"
	"github.com/tomoncle/tablerepo/types"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// Builder hands out table-scoped query handles. *database.Provider
// satisfies it.
type Builder interface {
	QueryBuilder(table string) *database.Table
}

// BaseRepository implements Repository over one table of map rows.
type BaseRepository struct {
	builder Builder
	tx      bun.IDB
	cfg     Config
}

var _ Repository = (*BaseRepository)(nil)

// New returns a repository for cfg.Table whose statements go through builder.
func New(builder Builder, cfg Config) *BaseRepository {
	return &BaseRepository{builder: builder, cfg: cfg.withDefaults()}
}

func (r *BaseRepository) Table() string { return r.cfg.Table }

func (r *BaseRepository) PKName() string { return r.cfg.PK }

// WithTx returns a copy of the repository whose statements run on tx.
// Batch operations on the copy issue their statements one at a time.
func (r *BaseRepository) WithTx(tx bun.IDB) *BaseRepository {
	c := *r
	c.tx = tx
	return &c
}

// model derives a fresh handle for every operation.
func (r *BaseRepository) model() (*database.Table, error) {
	t := r.builder.QueryBuilder(r.cfg.Table)
	if r.tx != nil {
		return t.Transacting(r.tx), nil
	}
	if err := t.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// selectQuery starts a read, carrying a handle error into the Query.
func (r *BaseRepository) selectQuery() *Query {
	t, err := r.model()
	if err != nil {
		return failedQuery(err)
	}
	return newQuery(t.Select())
}

func (r *BaseRepository) group() *errgroup.Group {
	g := new(errgroup.Group)
	if r.tx != nil {
		g.SetLimit(1)
	}
	return g
}

// PK returns the primary key a row will be written with: its own key when
// truthy, a freshly generated one otherwise. It returns nil when no PK
// column is configured or row is nil.
func (r *BaseRepository) PK(row types.Row) interface{} {
	if r.cfg.PK == "" || row == nil {
		return nil
	}
	if v := row[r.cfg.PK]; types.Truthy(v) {
		return v
	}
	return r.cfg.NewID()
}

func (r *BaseRepository) tuple(row types.Row) types.Row {
	t := types.CloneRow(row)
	if pk := r.PK(row); pk != nil {
		t[r.cfg.PK] = pk
	}
	return t
}

func (r *BaseRepository) checkModel(rows ...types.Row) error {
	if !r.cfg.StrictModel {
		return nil
	}
	for i, row := range rows {
		if r.cfg.Entity == nil || !r.cfg.Entity(row) {
			return fmt.Errorf("%w: row %d is not a %s entity", ErrInvalidState, i, r.cfg.Table)
		}
	}
	return nil
}

func (r *BaseRepository) affected(op string, res sql.Result, err error) (int64, error) {
	if err != nil {
		if is, kind := database.IsSqlError(err); is {
			r.cfg.Logger.Debug("Statement failed", "table", r.cfg.Table, "op", op, "kind", kind, "error", err)
		}
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *BaseRepository) Retrieve() *Query {
	return r.selectQuery()
}

func (r *BaseRepository) RetrieveBy(filter types.Filter) *Query {
	return r.Retrieve().Where(filter)
}

// RetrieveByNot selects rows where every filter entry fails to match.
func (r *BaseRepository) RetrieveByNot(filter types.Filter) *Query {
	return r.selectQuery().apply(whereNot(filter))
}

func (r *BaseRepository) RetrieveIn(column string, values []interface{}) *Query {
	return r.selectQuery().apply(whereIn(column, values))
}

// FindByPk returns the row whose primary key equals pk, or nil. Without a
// configured PK column "id" is used.
func (r *BaseRepository) FindByPk(ctx context.Context, pk interface{}) (types.Row, error) {
	pkName := r.cfg.PK
	if pkName == "" {
		pkName = defaultPKColumn
	}
	return r.RetrieveBy(types.Filter{pkName: pk}).First(ctx)
}

// FindUniqueBy returns the single row matching filter.
func (r *BaseRepository) FindUniqueBy(ctx context.Context, filter types.Filter) (types.Row, error) {
	rows, err := r.RetrieveBy(filter).All(ctx)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%w: %s where %v", ErrNotFound, r.cfg.Table, filter)
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("%w: %d rows in %s where %v", ErrAmbiguousResult, len(rows), r.cfg.Table, filter)
	}
}

// FindLastOneBy returns the most recently created row matching filter, or nil.
func (r *BaseRepository) FindLastOneBy(ctx context.Context, filter types.Filter) (types.Row, error) {
	return r.RetrieveBy(filter).OrderBy(r.cfg.CreatedAtColumn, true).First(ctx)
}

func (r *BaseRepository) FindLastOne(ctx context.Context) (types.Row, error) {
	return r.Retrieve().OrderBy(r.cfg.CreatedAtColumn, true).First(ctx)
}

// GroupBy counts rows per distinct value of column. Each result row holds
// the column value and a "count" entry.
func (r *BaseRepository) GroupBy(ctx context.Context, column string) ([]types.Row, error) {
	t, err := r.model()
	if err != nil {
		return nil, err
	}
	return newQuery(t.Select().
		Column(column).
		ColumnExpr("count(*) AS ?", bun.Ident("count")).
		Group(column)).All(ctx)
}

// Count counts rows, or non-null values of column when one is given.
func (r *BaseRepository) Count(ctx context.Context, column string) (int64, error) {
	t, err := r.model()
	if err != nil {
		return 0, err
	}
	q := t.Select()
	if column == "" || column == "*" {
		q = q.ColumnExpr("count(*)")
	} else {
		q = q.ColumnExpr("count(?)", bun.Ident(column))
	}
	var n int64
	if err := q.Scan(ctx, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Insert writes one row, adding its derived primary key.
func (r *BaseRepository) Insert(ctx context.Context, row types.Row) (int64, error) {
	if err := r.checkModel(row); err != nil {
		return 0, err
	}
	return r.insert(ctx, []types.Row{r.tuple(row)})
}

// InsertMany writes rows in a single statement. Every row is validated
// before anything is sent; an empty batch is a no-op.
func (r *BaseRepository) InsertMany(ctx context.Context, rows []types.Row) (int64, error) {
	if err := r.checkModel(rows...); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	tuples := make([]types.Row, len(rows))
	for i, row := range rows {
		tuples[i] = r.tuple(row)
	}
	return r.insert(ctx, tuples)
}

func (r *BaseRepository) insert(ctx context.Context, tuples []types.Row) (int64, error) {
	t, err := r.model()
	if err != nil {
		return 0, err
	}
	res, err := t.Insert(tuples).Exec(ctx)
	return r.affected("insert", res, err)
}

func (r *BaseRepository) DeleteBy(ctx context.Context, filter types.Filter) (int64, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: refusing to delete every row of %s", ErrEmptyCondition, r.cfg.Table)
	}
	t, err := r.model()
	if err != nil {
		return 0, err
	}
	res, err := t.Delete().ApplyQueryBuilder(whereEq(filter)).Exec(ctx)
	return r.affected("delete", res, err)
}

// DeleteIn deletes rows whose column is one of values. No values, no
// statement.
func (r *BaseRepository) DeleteIn(ctx context.Context, column string, values []interface{}) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	t, err := r.model()
	if err != nil {
		return 0, err
	}
	res, err := t.Delete().ApplyQueryBuilder(whereIn(column, values)).Exec(ctx)
	return r.affected("delete", res, err)
}

// UpdateBy applies data to every row matching condition. The updated-at
// column is set to now unless data carries a value for it.
func (r *BaseRepository) UpdateBy(ctx context.Context, condition types.Filter, data types.Row) (int64, error) {
	if len(condition) == 0 {
		return 0, fmt.Errorf("%w: refusing to update every row of %s", ErrEmptyCondition, r.cfg.Table)
	}
	t, err := r.model()
	if err != nil {
		return 0, err
	}
	set := r.stamp(data)
	res, err := t.Update(&set).ApplyQueryBuilder(whereEq(condition)).Exec(ctx)
	return r.affected("update", res, err)
}

// Update is the old name of UpdateBy.
//
// Deprecated: use UpdateBy.
func (r *BaseRepository) Update(ctx context.Context, condition types.Filter, data types.Row) (int64, error) {
	return r.UpdateBy(ctx, condition, data)
}

func (r *BaseRepository) stamp(data types.Row) types.Row {
	set := types.CloneRow(data)
	if !types.Truthy(set[r.cfg.UpdatedAtColumn]) {
		set[r.cfg.UpdatedAtColumn] = r.cfg.Now()
	}
	return set
}

// UpdateMany issues one UpdateBy per row keyed on row[keyColumn]. The
// updates run concurrently on the pool and are never cancelled, so the call
// returns only after the slowest update finishes, even when another has
// already failed. The first failure is returned and nothing already applied
// is undone. On a transaction the updates run one after another.
func (r *BaseRepository) UpdateMany(ctx context.Context, rows []types.Row, keyColumn string) (int64, error) {
	if err := requireKey(rows, keyColumn); err != nil {
		return 0, err
	}
	var total atomic.Int64
	g := r.group()
	for _, row := range rows {
		g.Go(func() error {
			n, err := r.UpdateBy(ctx, types.Filter{keyColumn: row[keyColumn]}, row)
			total.Add(n)
			return err
		})
	}
	err := g.Wait()
	return total.Load(), err
}

func requireKey(rows []types.Row, keyColumn string) error {
	for i, row := range rows {
		if row[keyColumn] == nil {
			return fmt.Errorf("%w: row %d has no %q", ErrMissingKey, i, keyColumn)
		}
	}
	return nil
}
