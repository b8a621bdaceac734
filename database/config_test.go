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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ConnectionConfig
		wantErr string
	}{
		{"missing type", ConnectionConfig{Database: "app"}, "type is required"},
		{"unsupported type", ConnectionConfig{Type: "oracle", Database: "app"}, "unsupported database type"},
		{"sqlite needs only a name", ConnectionConfig{Type: "sqlite3", Database: "app"}, ""},
		{"sqlite missing name", ConnectionConfig{Type: TypeSQLite}, "database name is required"},
		{"mysql missing host", ConnectionConfig{Type: TypeMySQL, User: "root", Database: "app"}, "host is required"},
		{"postgres missing user", ConnectionConfig{Type: "postgresql", Host: "db", Database: "app"}, "user is required"},
		{"sqlserver complete", ConnectionConfig{Type: "mssql", Host: "db", User: "sa", Database: "app"}, ""},
		{"negative pool", ConnectionConfig{Type: TypeSQLite, Database: "app", Pool: PoolConfig{Min: -1}}, "must not be negative"},
		{"min above max", ConnectionConfig{Type: TypeSQLite, Database: "app", Pool: PoolConfig{Min: 5, Max: 2}}, "exceeds pool max"},
		{"unbounded max", ConnectionConfig{Type: TypeSQLite, Database: "app", Pool: PoolConfig{Min: 5}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
connection:
  type: postgres
  host: db.internal
  port: 5433
  user: app
  password: secret
  database: inventory
  pool:
    min: 1
    max: 4
  slow_query_time: 500ms
logging:
  level: info
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	t.Setenv("DB_HOST", "override.internal")
	t.Setenv("DB_POOL_MAX", "8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	c := cfg.Connection
	assert.Equal(t, TypePostgres, c.Type)
	assert.Equal(t, "override.internal", c.Host)
	assert.Equal(t, 5433, c.Port)
	assert.Equal(t, "inventory", c.Database)
	assert.Equal(t, PoolConfig{Min: 1, Max: 8}, c.Pool)
	assert.Equal(t, 500*time.Millisecond, c.SlowQueryTime)
	assert.Equal(t, time.Hour, c.ConnMaxLifetime, "unset keys keep their defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.NoError(t, c.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection: [1, 2"), 0o600))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}
