// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewNoSink(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNoSink)
}

func TestNewStdout(t *testing.T) {
	logger, err := New(Config{Stdout: true, Level: -1})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(-1))
}

func TestNewFileJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.log")
	logger, err := New(Config{File: file, JSONFormat: true, MaxSize: 1})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())
	require.FileExists(t, file)
}

func TestNewBogusLevelDefaultsToInfo(t *testing.T) {
	logger, err := New(Config{Stdout: true, Level: 99})
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(-1))
	require.True(t, logger.Core().Enabled(0))
}
