package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending(t *testing.T) {
	m1 := Migration{Version: 1, Description: "one"}
	m2 := Migration{Version: 2, Description: "two"}
	m3 := Migration{Version: 3, Description: "three"}

	tests := []struct {
		name    string
		all     []Migration
		applied map[int]time.Time
		want    []Migration
	}{
		{name: "fresh database", all: []Migration{m1, m2}, applied: map[int]time.Time{}, want: []Migration{m1, m2}},
		{name: "sorted by version", all: []Migration{m3, m1, m2}, applied: nil, want: []Migration{m1, m2, m3}},
		{name: "skips applied", all: []Migration{m1, m2, m3}, applied: map[int]time.Time{1: time.Now(), 3: time.Now()}, want: []Migration{m2}},
		{name: "up to date", all: []Migration{m1}, applied: map[int]time.Time{1: time.Now()}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pending(tt.all, tt.applied)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPendingRejectsDuplicateVersions(t *testing.T) {
	_, err := Pending([]Migration{{Version: 1}, {Version: 1}}, nil)
	assert.Error(t, err)
}
