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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tomoncle/tablerepo/utils"
	"gopkg.in/yaml.v3"
)

// PoolConfig bounds the connection pool. Min is kept as idle connections,
// Max caps open connections; excess requests queue inside database/sql.
type PoolConfig struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// ConnectionConfig describes how to reach the database.
type ConnectionConfig struct {
	Type            string        `yaml:"type" json:"type"` // mysql, postgres, sqlite, sqlserver
	Driver          string        `yaml:"driver" json:"driver"`
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	User            string        `yaml:"user" json:"user"`
	Password        string        `yaml:"password" json:"password"`
	Database        string        `yaml:"database" json:"database"`
	SSLMode         string        `yaml:"sslmode" json:"sslmode"`
	Pool            PoolConfig    `yaml:"pool" json:"pool"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	EnableQueryLog  bool          `yaml:"enable_query_log" json:"enable_query_log"`
	SlowQueryTime   time.Duration `yaml:"slow_query_time" json:"slow_query_time"`
}

// LoggingConfig controls the logrus loggers created through utils.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // text or json
}

// Config is the on-disk configuration document.
type Config struct {
	Connection ConnectionConfig `yaml:"connection" json:"connection"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Pool:            PoolConfig{Min: 2, Max: 10},
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		SlowQueryTime:   time.Second * 2,
	}
}

// LoadConfig reads a YAML config file on top of the defaults and applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Connection: *DefaultConnectionConfig()}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Connection.OverrideFromEnv()
	cfg.Logging.Level = utils.EnvDefaultString("LOG_LEVEL", cfg.Logging.Level)
	return cfg, nil
}

// OverrideFromEnv replaces settings with DB_* environment variables when set.
func (c *ConnectionConfig) OverrideFromEnv() {
	c.Type = utils.EnvDefaultString("DB_TYPE", c.Type)
	c.Driver = utils.EnvDefaultString("DB_DRIVER", c.Driver)
	c.Host = utils.EnvDefaultString("DB_HOST", c.Host)
	c.Port = utils.EnvDefaultInt("DB_PORT", c.Port)
	c.User = utils.EnvDefaultString("DB_USER", c.User)
	c.Password = utils.EnvDefaultString("DB_PASSWORD", c.Password)
	c.Database = utils.EnvDefaultString("DB_NAME", c.Database)
	c.SSLMode = utils.EnvDefaultString("DB_SSLMODE", c.SSLMode)
	c.Pool.Min = utils.EnvDefaultInt("DB_POOL_MIN", c.Pool.Min)
	c.Pool.Max = utils.EnvDefaultInt("DB_POOL_MAX", c.Pool.Max)
	c.ConnMaxLifetime = utils.EnvDefaultDuration("DB_CONN_MAX_LIFETIME", c.ConnMaxLifetime)
	c.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", c.EnableQueryLog)
}

// Validate reports the first missing or inconsistent setting.
func (c *ConnectionConfig) Validate() error {
	switch normalizeType(c.Type) {
	case "":
		return fmt.Errorf("database type is required")
	case TypeSQLite:
	case TypeMySQL, TypePostgres, TypeSQLServer:
		if c.Host == "" {
			return fmt.Errorf("database host is required for %s", c.Type)
		}
		if c.User == "" {
			return fmt.Errorf("database user is required for %s", c.Type)
		}
	default:
		return fmt.Errorf("unsupported database type: %s, supported types: %v", c.Type, supportedTypes)
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Pool.Min < 0 || c.Pool.Max < 0 {
		return fmt.Errorf("pool bounds must not be negative: min=%d max=%d", c.Pool.Min, c.Pool.Max)
	}
	if c.Pool.Max > 0 && c.Pool.Min > c.Pool.Max {
		return fmt.Errorf("pool min %d exceeds pool max %d", c.Pool.Min, c.Pool.Max)
	}
	return nil
}

const (
	TypeMySQL     = "mysql"
	TypePostgres  = "postgres"
	TypeSQLite    = "sqlite"
	TypeSQLServer = "sqlserver"
)

var supportedTypes = []string{TypeMySQL, TypePostgres, TypeSQLite, TypeSQLServer}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "mysql", "mariadb":
		return TypeMySQL
	case "postgres", "postgresql", "pg":
		return TypePostgres
	case "sqlite", "sqlite3":
		return TypeSQLite
	case "sqlserver", "mssql":
		return TypeSQLServer
	case "":
		return ""
	}
	return t
}
