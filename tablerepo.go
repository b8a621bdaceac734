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

// Package tablerepo wires a connected database.Provider from configuration
// and builds repositories on top of it.
package tablerepo

import (
	"context"
	"fmt"

	"github.com/tomoncle/tablerepo/database"
	"github.com/tomoncle/tablerepo/repository"
	"github.com/tomoncle/tablerepo/utils"
)

// Open applies the logging settings of cfg and returns a connected provider.
func Open(ctx context.Context, cfg *database.Config) (*database.Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration cannot be empty", database.ErrConnection)
	}
	if cfg.Logging.Format != "" {
		utils.ConfigureConsoleLogFormat(cfg.Logging.Format)
	}
	if cfg.Logging.Level != "" {
		utils.ConfigureLogLevel(cfg.Logging.Level)
	}

	p := database.NewProvider(database.GetLogger())
	if err := p.Connect(ctx, &cfg.Connection); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenFile loads the YAML configuration at path and calls Open.
func OpenFile(ctx context.Context, path string) (*database.Provider, error) {
	cfg, err := database.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg)
}

// NewRepository returns a repository for table keyed by pk on p.
func NewRepository(p *database.Provider, table, pk string) *repository.BaseRepository {
	return repository.New(p, repository.Config{Table: table, PK: pk})
}
