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

// Finder defines the read operations of a repository.
type Finder interface {
	Retrieve() *Query
	RetrieveBy(filter types.Filter) *Query
	RetrieveByNot(filter types.Filter) *Query
	RetrieveIn(column string, values []interface{}) *Query

	FindByPk(ctx context.Context, pk interface{}) (types.Row, error)
	FindUniqueBy(ctx context.Context, filter types.Filter) (types.Row, error)
	FindLastOneBy(ctx context.Context, filter types.Filter) (types.Row, error)
	FindLastOne(ctx context.Context) (types.Row, error)

	GroupBy(ctx context.Context, column string) ([]types.Row, error)
	Count(ctx context.Context, column string) (int64, error)
}

// Writer defines single-statement writes. Each returns rows affected.
type Writer interface {
	Insert(ctx context.Context, row types.Row) (int64, error)
	InsertMany(ctx context.Context, rows []types.Row) (int64, error)
	UpdateBy(ctx context.Context, condition types.Filter, data types.Row) (int64, error)
	DeleteBy(ctx context.Context, filter types.Filter) (int64, error)
	DeleteIn(ctx context.Context, column string, values []interface{}) (int64, error)
}

// BatchWriter defines multi-statement batch writes.
type BatchWriter interface {
	UpdateMany(ctx context.Context, rows []types.Row, keyColumn string) (int64, error)
	UpsertMany(ctx context.Context, rows []types.Row, keyColumn string) (*UpsertResult, error)
	UpsertManyInTx(ctx context.Context, tx bun.IDB, rows []types.Row, keyColumn string) (*UpsertResult, error)
	DeleteAndInsertMany(ctx context.Context, rows []types.Row, key string) error
	DeleteAndInsertManyInTx(ctx context.Context, tx bun.IDB, rows []types.Row, key string) error
}

// Repository combines reads, writes and batch writes over one table.
type Repository interface {
	Finder
	Writer
	BatchWriter
	Table() string
	PK(row types.Row) interface{}
}
