package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/pipeline"
)

func TestRootCmd_MissingConfigurationIsAStageError(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log-level", "ERROR"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	var se *pipeline.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, pipeline.StageLoadConfiguration, se.Stage)
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	var se *pipeline.StageError
	assert.False(t, errors.As(err, &se))
}
