package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunRecord(t *testing.T) {
	before := time.Now()
	r := NewRunRecord("opencl", 8)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "opencl", r.Backend)
	assert.Equal(t, 8, r.Elements)
	assert.False(t, r.Timestamp.Before(before), "timestamp is before creation")
	assert.NotEqual(t, r.ID, NewRunRecord("opencl", 8).ID, "IDs should be unique")
	assert.NoError(t, r.Validate())
}

func TestRunRecord_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunRecord)
		field  string
	}{
		{"empty id", func(r *RunRecord) { r.ID = "" }, "ID"},
		{"bad id", func(r *RunRecord) { r.ID = "run-1" }, "ID"},
		{"backend", func(r *RunRecord) { r.Backend = "" }, "Backend"},
		{"elements", func(r *RunRecord) { r.Elements = -1 }, "Elements"},
		{"mismatches", func(r *RunRecord) { r.Mismatches = r.Elements + 1 }, "Mismatches"},
		{"duration", func(r *RunRecord) { r.Duration = -time.Second }, "Duration"},
		{"timestamp", func(r *RunRecord) { r.Timestamp = time.Time{} }, "Timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunRecord("host", 4)
			tt.mutate(r)

			var verr *ValidationError
			require.ErrorAs(t, r.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRunRecord_ToInfo(t *testing.T) {
	r := NewRunRecord("host", 4)
	r.Device = "host-cpu"
	r.Duration = time.Second

	info := r.ToInfo()
	assert.Equal(t, r.ID, info.ID)
	assert.Equal(t, "host-cpu", info.Device)
	assert.Equal(t, time.Second, info.Duration)
	assert.True(t, info.OK)

	r.Mismatches = 1
	assert.False(t, r.ToInfo().OK, "run with mismatches should not be OK")
}

func TestRunRecord_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(NewRunRecord("host", 4))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"id", "backend", "elements", "timestamp", "verified", "mismatches"} {
		assert.Contains(t, fields, key)
	}
	assert.NotContains(t, fields, "error", "empty error should be omitted")
}
