package cache

import (
	"bytes"
	"context"
	"encoding"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pierrec/lz4/v4"
)

var (
	ErrNotFound     = errors.New("key not found in cache")
	ErrInvalidValue = errors.New("invalid value for cache")
	ErrClosed       = errors.New("cache is closed")
	ErrInvalidKey   = errors.New("invalid cache key")
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Get(ctx context.Context, key string, value interface{}) error

	Delete(ctx context.Context, key string) error

	Clear(ctx context.Context) error

	Close() error
}

type Options struct {
	DefaultTTL time.Duration

	RedisAddr string

	RedisPassword string

	RedisDB int

	// KeyPrefix scopes Clear to the keys this cache wrote.
	KeyPrefix string
}

const KeyPrefix = "datajobs:"

func DefaultOptions() Options {
	return Options{
		DefaultTTL: 24 * time.Hour,
		KeyPrefix:  KeyPrefix,
	}
}

// CleanKey names the cached result of cleaning input under policy.
func CleanKey(input []byte, policy string) string {
	h := xxhash.New()
	_, _ = h.Write(input)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(policy)
	return fmt.Sprintf("%sclean:%016x", KeyPrefix, h.Sum64())
}

// Binary is implemented by values that can be stored and restored.
type Binary interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Compressed stores the wrapped value lz4-compressed. Pass it to Set and Get
// in place of the value itself.
type Compressed struct {
	V Binary
}

func (c Compressed) MarshalBinary() ([]byte, error) {
	raw, err := c.V.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (c Compressed) UnmarshalBinary(data []byte) error {
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return fmt.Errorf("%w: decompress: %v", ErrInvalidValue, err)
	}
	return c.V.UnmarshalBinary(raw)
}
