package cache

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blob struct {
	data []byte
}

func (b *blob) MarshalBinary() ([]byte, error) { return b.data, nil }

func (b *blob) UnmarshalBinary(data []byte) error {
	b.data = append([]byte(nil), data...)
	return nil
}

func TestCleanKey(t *testing.T) {
	input := []byte("job_skills\n\"['sql']\"\n")

	key := CleanKey(input, "missing")
	assert.True(t, strings.HasPrefix(key, "datajobs:clean:"))
	assert.Len(t, strings.TrimPrefix(key, "datajobs:clean:"), 16)

	assert.Equal(t, key, CleanKey(input, "missing"))
	assert.NotEqual(t, key, CleanKey(input, "abort"))
	assert.NotEqual(t, key, CleanKey(append(input, '\n'), "missing"))
}

func TestCompressedRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("Data Analyst,2023-06-16,['sql', 'python']\n"), 200)

	data, err := Compressed{V: &blob{data: payload}}.MarshalBinary()
	require.NoError(t, err)
	assert.Less(t, len(data), len(payload))

	out := &blob{}
	require.NoError(t, Compressed{V: out}.UnmarshalBinary(data))
	assert.Equal(t, payload, out.data)
}

func TestCompressedRejectsGarbage(t *testing.T) {
	err := Compressed{V: &blob{}}.UnmarshalBinary([]byte("not lz4"))
	assert.True(t, errors.Is(err, ErrInvalidValue))
}
