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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var (
	selectColor = color.New(color.FgGreen)
	insertColor = color.New(color.FgBlue)
	updateColor = color.New(color.FgYellow)
	deleteColor = color.New(color.FgMagenta)
	otherColor  = color.New(color.FgRed)
	errorColor  = color.New(color.BgRed, color.FgHiWhite)
	tagColor    = color.New(color.FgCyan)
)

// QueryHook echoes executed statements, colored by operation. Unless verbose,
// only failed statements are printed.
type QueryHook struct {
	writer  io.Writer
	verbose bool
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook returns a hook writing to w, or to stdout when w is nil.
func NewQueryHook(w io.Writer, verbose bool) *QueryHook {
	if w == nil {
		w = os.Stdout
	}
	return &QueryHook{writer: w, verbose: verbose}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if !h.verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	now := time.Now()
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		tagColor.Sprintf("%8s", "[BUN]"),
		fmt.Sprintf("%12s", now.Sub(event.StartTime).Round(time.Microsecond)),
		operationColor(Operation(event)).Sprint(event.Query),
	}
	if event.Err != nil {
		args = append(args, errorColor.Sprintf(" %T: %s ", event.Err, event.Err))
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

// Operation names the statement kind of event from the first keyword of its
// SQL. Raw queries do not carry their kind through bun.
func Operation(event *bun.QueryEvent) string {
	if fields := strings.Fields(event.Query); len(fields) > 0 {
		return strings.ToUpper(fields[0])
	}
	return event.Operation()
}

func operationColor(operation string) *color.Color {
	switch operation {
	case "SELECT":
		return selectColor
	case "INSERT":
		return insertColor
	case "UPDATE":
		return updateColor
	case "DELETE":
		return deleteColor
	default:
		return otherColor
	}
}

// slowQueryHook logs successful statements that ran longer than slowTime.
type slowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.logger == nil {
		return
	}
	if duration := time.Since(event.StartTime); duration > h.slowTime {
		h.logger.Warn("Database slow query detected",
			"duration", duration,
			"slow_threshold", h.slowTime,
			"query", event.Query,
		)
	}
}
