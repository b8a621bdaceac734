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

	"github.com/tomoncle/tablerepo/types"
	"github.com/uptrace/bun"
)

// UpsertResult reports how an UpsertMany batch was split and applied.
type UpsertResult struct {
	Inserted int64
	Updated  int64
}

// UpsertMany reconciles rows against the table by keyColumn: one SELECT
// fetches the rows whose key is in the batch, rows with a match are updated
// and the rest inserted. The insert and the per-row updates run
// concurrently and are not atomic; use UpsertManyInTx for all-or-nothing.
func (r *BaseRepository) UpsertMany(ctx context.Context, rows []types.Row, keyColumn string) (*UpsertResult, error) {
	result := &UpsertResult{}
	if len(rows) == 0 {
		return result, nil
	}
	if err := requireKey(rows, keyColumn); err != nil {
		return result, err
	}

	existing, err := r.RetrieveIn(keyColumn, types.Pluck(rows, keyColumn)).All(ctx)
	if err != nil {
		return result, err
	}
	toInsert, toUpdate := partition(rows, existing, keyColumn)
	if err := r.checkModel(toInsert...); err != nil {
		return result, err
	}

	g := r.group()
	g.Go(func() error {
		n, err := r.InsertMany(ctx, toInsert)
		result.Inserted = n
		return err
	})
	g.Go(func() error {
		n, err := r.UpdateMany(ctx, toUpdate, keyColumn)
		result.Updated = n
		return err
	})
	err = g.Wait()

	r.cfg.Logger.Debug("Upsert batch applied",
		"table", r.cfg.Table,
		"key", keyColumn,
		"to_insert", len(toInsert),
		"to_update", len(toUpdate),
		"error", err,
	)
	return result, err
}

// UpsertManyInTx runs UpsertMany on tx so the whole batch commits or rolls
// back together.
func (r *BaseRepository) UpsertManyInTx(ctx context.Context, tx bun.IDB, rows []types.Row, keyColumn string) (*UpsertResult, error) {
	return r.WithTx(tx).UpsertMany(ctx, rows, keyColumn)
}

// partition splits rows into those whose key is absent from existing and
// those with at least one existing match. Keys compare in string form.
func partition(rows, existing []types.Row, keyColumn string) (toInsert, toUpdate []types.Row) {
	byKey := types.GroupBy(existing, keyColumn)
	for _, row := range rows {
		if len(byKey[types.KeyOf(row[keyColumn])]) > 0 {
			toUpdate = append(toUpdate, row)
		} else {
			toInsert = append(toInsert, row)
		}
	}
	return toInsert, toUpdate
}

// DeleteAndInsertMany replaces the rows sharing a key value with the batch:
// it deletes every row whose key column is among the batch keys, then
// inserts the batch. The two statements share no transaction, so a failed
// insert leaves the delete in place.
func (r *BaseRepository) DeleteAndInsertMany(ctx context.Context, rows []types.Row, key string) error {
	if err := r.checkModel(rows...); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := r.DeleteIn(ctx, key, types.Pluck(rows, key)); err != nil {
		return err
	}
	_, err := r.InsertMany(ctx, rows)
	return err
}

// DeleteAndInsertManyInTx is DeleteAndInsertMany with both statements bound
// to tx.
func (r *BaseRepository) DeleteAndInsertManyInTx(ctx context.Context, tx bun.IDB, rows []types.Row, key string) error {
	return r.WithTx(tx).DeleteAndInsertMany(ctx, rows, key)
}
