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
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/tablerepo/database"
	"github.com/tomoncle/tablerepo/types"
	"github.com/uptrace/bun"
)

const itemsDDL = `CREATE TABLE items (
	"id"        TEXT PRIMARY KEY,
	"sid"       TEXT,
	"name"      TEXT,
	"qty"       INTEGER,
	"createdAt" TIMESTAMP,
	"updatedAt" TIMESTAMP
)`

// recordingHook stands in for a fake driver: it records every statement
// that reaches the database.
type recordingHook struct {
	mu      sync.Mutex
	ops     []string
	queries []string
}

func (h *recordingHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *recordingHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, database.Operation(event))
	h.queries = append(h.queries, event.Query)
}

func (h *recordingHook) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = nil
	h.queries = nil
}

func (h *recordingHook) count(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, o := range h.ops {
		if o == op {
			n++
		}
	}
	return n
}

func (h *recordingHook) total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ops)
}

func (h *recordingHook) last(op string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.ops) - 1; i >= 0; i-- {
		if h.ops[i] == op {
			return h.queries[i]
		}
	}
	return ""
}

type fixture struct {
	provider *database.Provider
	hook     *recordingHook
}

// newFixture connects a private in-memory sqlite database holding an empty
// items table. A single pooled connection keeps the database alive and
// queues concurrent statements.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	p := database.NewProvider(database.NopLogger())
	err := p.Connect(ctx, &database.ConnectionConfig{
		Type:     database.TypeSQLite,
		Database: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		Pool:     database.PoolConfig{Min: 1, Max: 1},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	_, err = p.DB().ExecContext(ctx, itemsDDL)
	require.NoError(t, err)

	hook := &recordingHook{}
	p.DB().AddQueryHook(hook)
	return &fixture{provider: p, hook: hook}
}

func (f *fixture) repo(cfg Config) *BaseRepository {
	if cfg.Table == "" {
		cfg.Table = "items"
	}
	if cfg.Logger == nil {
		cfg.Logger = database.NopLogger()
	}
	return New(f.provider, cfg)
}

func (f *fixture) seed(t *testing.T, rows ...types.Row) {
	t.Helper()
	r := f.repo(Config{PK: "id"})
	_, err := r.InsertMany(context.Background(), rows)
	require.NoError(t, err)
	f.hook.reset()
}

func str(v interface{}) string {
	return types.KeyOf(v)
}

func column(rows []types.Row, col string) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = str(row[col])
	}
	return out
}
