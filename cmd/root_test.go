package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/energy-comms/internal/store"
)

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"fetch", "coal", "brownfield", "employment", "all", "runs", "geo"} {
		assert.True(t, names[want], "command %s not registered", want)
	}

	geoNames := make(map[string]bool)
	for _, c := range geoCmd.Commands() {
		geoNames[c.Name()] = true
	}
	assert.True(t, geoNames["status"], "geo status not registered")
	assert.True(t, geoNames["fetch"], "geo fetch not registered")
}

func TestFormatRunsList(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, []store.Run{
		{
			ID:         "abc-123",
			Resolution: "tract",
			Criteria:   []string{"coal", "brownfield"},
			Status:     store.RunStatusComplete,
			Records:    17,
			StartedAt:  time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
		},
	})

	out := buf.String()
	assert.Contains(t, out, "abc-123")
	assert.Contains(t, out, "coal,brownfield")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "17")
}

func TestQCEWArchiveName(t *testing.T) {
	assert.Equal(t, "2020_annual_by_area.zip", qcewArchive(2020))
}
