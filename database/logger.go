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
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/tablerepo/utils"
)

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

// Logger is the structured logger used by the provider and repositories.
// Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// InitLogger installs log as the process default. The first non-nil call wins.
func InitLogger(log Logger) {
	if log == nil {
		return
	}
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = log
	}
}

// GetLogger returns the process default logger, creating a logrus-backed
// "DATABASE" logger when none was installed.
func GetLogger() Logger {
	globalLoggerMu.RLock()
	l := globalLogger
	globalLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewLogrusLogger(utils.NewLogger("DATABASE"))
	}
	return globalLogger
}

// LogrusLogger adapts a logrus logger to Logger.
type LogrusLogger struct {
	logger *logrus.Logger
}

func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{logger: l}
}

func (l *LogrusLogger) Debug(msg string, fields ...interface{}) {
	l.entry(fields).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields ...interface{}) {
	l.entry(fields).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...interface{}) {
	l.entry(fields).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields ...interface{}) {
	l.entry(fields).Error(msg)
}

func (l *LogrusLogger) entry(fields []interface{}) *logrus.Entry {
	data := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		data[fmt.Sprint(fields[i])] = fields[i+1]
	}
	return l.logger.WithFields(data)
}

type nopLogger struct{}

// NopLogger discards everything.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
