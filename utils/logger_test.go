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

package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		" DEBUG ": logrus.DebugLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), "level %q", in)
	}
}

func TestNewLoggerIsRegistered(t *testing.T) {
	a := NewLogger("UTILS_TEST")
	b := NewLogger("UTILS_TEST")
	assert.Same(t, a, b)

	assert.True(t, SetLoggerLevel("UTILS_TEST", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("NO_SUCH_LOGGER", "error"))
}

func TestLog4jColorFormatter(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "DATABASE", NameWidth: 10, NoColor: true}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "slow query",
		Data:    logrus.Fields{"table": "items", "duration": "3s"},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "2025-01-02 03:04:05.000 WARNING "), string(out))
	assert.Contains(t, string(out), "  DATABASE : slow query duration=3s table=items\n")
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "DATABASE"}
	entry := &logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.InfoLevel,
		Message: "connected",
		Data:    logrus.Fields{"type": "sqlite"},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(out, []byte("\n")))

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "DATABASE", rec["model"])
	assert.Equal(t, "connected", rec["message"])
	assert.Equal(t, map[string]interface{}{"type": "sqlite"}, rec["fields"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("UTILS_TEST_INT", "12")
	t.Setenv("UTILS_TEST_BAD_INT", "x")
	t.Setenv("UTILS_TEST_BOOL", "true")
	t.Setenv("UTILS_TEST_DUR", "7")
	t.Setenv("UTILS_TEST_DUR2", "150ms")

	assert.Equal(t, 12, EnvDefaultInt("UTILS_TEST_INT", 1))
	assert.Equal(t, 1, EnvDefaultInt("UTILS_TEST_BAD_INT", 1))
	assert.True(t, EnvDefaultBool("UTILS_TEST_BOOL", false))
	assert.Equal(t, "def", EnvDefaultString("UTILS_TEST_UNSET", "def"))
	assert.Equal(t, 7*time.Second, EnvDefaultDuration("UTILS_TEST_DUR", time.Second))
	assert.Equal(t, 150*time.Millisecond, EnvDefaultDuration("UTILS_TEST_DUR2", time.Second))
}

func TestConfigureConsoleLogFormatConcurrently(t *testing.T) {
	t.Cleanup(func() { ConfigureConsoleLogFormat("text") })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			ConfigureConsoleLogFormat([]string{"json", "text"}[i%2])
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NotNil(t, NewLogger(fmt.Sprintf("CONCURRENT-%d", i)))
		}(i)
	}
	wg.Wait()

	ConfigureConsoleLogFormat(" JSON ")
	_, ok := NewLogger("FORMAT-JSON").Formatter.(*JSONLogFormatter)
	assert.True(t, ok)

	ConfigureConsoleLogFormat("anything else")
	_, ok = NewLogger("FORMAT-TEXT").Formatter.(*Log4jColorFormatter)
	assert.True(t, ok)
}
