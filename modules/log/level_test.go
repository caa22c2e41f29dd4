// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package log

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, TRACE, LevelFromString("trace"))
	assert.Equal(t, WARN, LevelFromString("warning"))
	assert.Equal(t, ERROR, LevelFromString("Error"))
	assert.Equal(t, NONE, LevelFromString("none"))
	assert.Equal(t, INFO, LevelFromString("gibberish"))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", DEBUG.String())
	assert.Equal(t, "info", Level(9001).String())
}

func TestLoggerOutput(t *testing.T) {
	var buf strings.Builder
	SetOutput(&buf)
	SetLevel(INFO)
	defer func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
	}()

	Debug("hidden %d", 1)
	Info("visible %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible 2")
	assert.Contains(t, out, "[I]")
}
