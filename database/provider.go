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
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mssqldialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql pool statistics.
type DBStats struct {
	MaxOpenConns int           `json:"max_open_conns"`
	OpenConns    int           `json:"open_conns"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

// Provider owns the single pooled connection of a process and hands out
// table-scoped query handles. Construct one at startup, Connect it once and
// pass it to every repository.
type Provider struct {
	mu        sync.RWMutex
	config    *ConnectionConfig
	db        *bun.DB
	sqlDB     *sql.DB
	logger    Logger
	connected bool
	lastError error
}

// NewProvider returns an unconnected provider. A nil logger falls back to
// GetLogger.
func NewProvider(logger Logger) *Provider {
	if logger == nil {
		logger = GetLogger()
	}
	return &Provider{logger: logger}
}

// Connect opens the pool described by cfg and verifies it with a ping. Once
// a connection is established later calls are no-ops and cfg is ignored.
// All failures wrap ErrConnection.
func (p *Provider) Connect(ctx context.Context, cfg *ConnectionConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected && p.db != nil {
		p.logger.Debug("Database already connected, reusing pool", "type", p.config.Type, "database", p.config.Database)
		return nil
	}
	if cfg == nil {
		return fmt.Errorf("%w: database configuration cannot be empty", ErrConnection)
	}
	if err := cfg.Validate(); err != nil {
		p.lastError = err
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	config := *cfg
	config.Type = normalizeType(config.Type)
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 30 * time.Second
	}

	sqlDB, db, err := p.open(&config)
	if err != nil {
		p.lastError = err
		return fmt.Errorf("%w: failed to create database connection: %w", ErrConnection, err)
	}
	configurePool(sqlDB, &config)

	pingCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		p.lastError = err
		return fmt.Errorf("%w: database connection test failed: %w", ErrConnection, err)
	}

	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv("BUNDEBUG"),
	))
	if config.EnableQueryLog {
		db.AddQueryHook(NewQueryHook(nil, true))
	}
	if config.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{slowTime: config.SlowQueryTime, logger: p.logger})
	}

	p.config = &config
	p.sqlDB = sqlDB
	p.db = db
	p.connected = true
	p.lastError = nil
	p.logger.Info("Database connected successfully", "type", config.Type, "host", config.Host, "database", config.Database)
	return nil
}

func (p *Provider) open(cfg *ConnectionConfig) (*sql.DB, *bun.DB, error) {
	var (
		driverName string
		dsn        string
		dialect    schema.Dialect
	)

	switch cfg.Type {
	case TypeMySQL:
		driverName, dsn, dialect = "mysql", mysqlDSN(cfg), mysqldialect.New()
	case TypePostgres:
		driverName, dsn, dialect = "postgres", postgresDSN(cfg), pgdialect.New()
		if strings.EqualFold(cfg.Driver, "pgx") {
			driverName = "pgx"
		}
	case TypeSQLite:
		driverName, dsn, dialect = sqliteshim.ShimName, sqliteDSN(cfg), sqlitedialect.New()
	case TypeSQLServer:
		driverName, dsn, dialect = "sqlserver", sqlserverDSN(cfg), mssqldialect.New()
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, dialect), nil
}

func mysqlDSN(cfg *ConnectionConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = hostPort(cfg.Host, cfg.Port, 3306)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Timeout = cfg.ConnectTimeout
	mc.ReadTimeout = cfg.ReadTimeout
	mc.WriteTimeout = cfg.WriteTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func postgresDSN(cfg *ConnectionConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     hostPort(cfg.Host, cfg.Port, 5432),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func sqlserverDSN(cfg *ConnectionConfig) string {
	q := url.Values{}
	q.Set("database", cfg.Database)
	q.Set("dial timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     hostPort(cfg.Host, cfg.Port, 1433),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// sqliteDSN keeps URIs and in-memory names as given and otherwise stores the
// database in "<name>.db".
func sqliteDSN(cfg *ConnectionConfig) string {
	name := cfg.Database
	if strings.HasPrefix(name, "file:") || name == ":memory:" || strings.HasSuffix(name, ".db") {
		return name
	}
	return name + ".db"
}

func hostPort(host string, port, def int) string {
	if port <= 0 {
		port = def
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func configurePool(sqlDB *sql.DB, cfg *ConnectionConfig) {
	if cfg.Pool.Max > 0 {
		sqlDB.SetMaxOpenConns(cfg.Pool.Max)
	}
	sqlDB.SetMaxIdleConns(cfg.Pool.Min)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

// QueryBuilder returns a fresh handle scoped to table. It performs no I/O.
// Before Connect, or after Close, the handle's Err wraps ErrConnection.
func (p *Provider) QueryBuilder(table string) *Table {
	db := p.DB()
	if db == nil {
		return &Table{name: table, err: fmt.Errorf("%w: database not connected", ErrConnection)}
	}
	return NewTable(db, table)
}

// DB returns the Bun database, or nil before Connect succeeds.
func (p *Provider) DB() *bun.DB {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db
}

// Connected reports whether Connect has succeeded and Close has not run.
func (p *Provider) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// RunInTx runs fn inside a transaction that commits when fn returns nil and
// rolls back otherwise.
func (p *Provider) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	db := p.DB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.RunInTx(ctx, nil, fn)
}

func (p *Provider) Ping(ctx context.Context) error {
	db := p.DB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (p *Provider) HealthCheck(ctx context.Context) *HealthStatus {
	p.mu.RLock()
	db, sqlDB, connected := p.db, p.sqlDB, p.connected
	p.mu.RUnlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start, Connected: connected}
	if db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	err := db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.Connected = false
		status.LastError = err.Error()
	} else {
		status.Healthy = true
		status.Connected = true
	}

	p.mu.Lock()
	if p.db == db {
		p.lastError = err
	}
	p.mu.Unlock()

	stats := sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (p *Provider) Stats() *DBStats {
	p.mu.RLock()
	sqlDB := p.sqlDB
	p.mu.RUnlock()
	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns: stats.MaxOpenConnections,
		OpenConns:    stats.OpenConnections,
		InUse:        stats.InUse,
		Idle:         stats.Idle,
		WaitCount:    stats.WaitCount,
		WaitDuration: stats.WaitDuration,
	}
}

// Close releases the pool. A closed provider may be connected again.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	p.sqlDB = nil
	p.connected = false
	if err != nil {
		p.logger.Error("Failed to close database connection", "error", err)
	} else {
		p.logger.Info("Database connection closed")
	}
	return err
}
