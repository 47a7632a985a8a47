package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergents/internal/model"
)

func TestRunCodecRoundTrip(t *testing.T) {
	run := sampleRun("run-a", "2026-01-01T00:00:00Z")
	data, err := EncodeRun(run)
	require.NoError(t, err)
	decoded, err := DecodeRun(data)
	require.NoError(t, err)
	assert.Equal(t, run, decoded)
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	run := sampleRun("run-a", "")
	run.SchemaVersion = CurrentSchemaVersion + 1
	data, err := EncodeRun(run)
	require.NoError(t, err)
	_, err = DecodeRun(data)
	assert.True(t, errors.Is(err, ErrVersionMismatch))

	snapshot := sampleSnapshot("run-a")
	snapshot.CodecVersion = 0
	data, err = EncodeSnapshot(snapshot)
	require.NoError(t, err)
	_, err = DecodeSnapshot(data)
	assert.True(t, errors.Is(err, ErrVersionMismatch))
}

func TestHistoryCodec(t *testing.T) {
	data, err := EncodeHistory(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	history := []model.GenerationStats{{Generation: 1, MeanLength: 12.5}}
	data, err = EncodeHistory(history)
	require.NoError(t, err)
	decoded, err := DecodeHistory(data)
	require.NoError(t, err)
	assert.Equal(t, history, decoded)

	_, err = DecodeHistory([]byte("{"))
	require.Error(t, err)
}
