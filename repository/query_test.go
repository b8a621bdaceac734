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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tomoncle/tablerepo/types"
)

func TestQueryRendering(t *testing.T) {
	f := newFixture(t)
	r := f.repo(Config{PK: "id"})

	tests := []struct {
		name string
		q    *Query
		want []string
	}{
		{
			name: "retrieve",
			q:    r.Retrieve(),
			want: []string{`SELECT * FROM "items"`},
		},
		{
			name: "equality with null",
			q:    r.RetrieveBy(types.Filter{"name": "a", "sid": nil}),
			want: []string{`("name" = 'a')`, `("sid" IS NULL)`},
		},
		{
			name: "negated pairs",
			q:    r.RetrieveByNot(types.Filter{"name": "a", "sid": nil}),
			want: []string{`NOT ("name" = 'a')`, `"sid" IS NOT NULL`},
		},
		{
			name: "membership",
			q:    r.RetrieveIn("sid", []interface{}{"A", "B"}),
			want: []string{`"sid" IN (`, `'A'`, `'B'`},
		},
		{
			name: "empty membership",
			q:    r.RetrieveIn("sid", nil),
			want: []string{`1 = 0`},
		},
		{
			name: "ordered and limited",
			q:    r.Retrieve().OrderBy("createdAt", true).Limit(1),
			want: []string{`ORDER BY "createdAt" DESC`, `LIMIT 1`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := tt.q.String()
			for _, w := range tt.want {
				assert.Contains(t, sql, w)
			}
		})
	}
	assert.Zero(t, f.hook.total(), "rendering must not touch the database")
}
