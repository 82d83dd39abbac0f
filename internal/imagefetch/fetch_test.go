package imagefetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_FloorAndCeiling(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 10*time.Second, backoff(10))
}

func TestDecodeBase64_PlainAndDataURL(t *testing.T) {
	plain := "aGVsbG8="
	out, err := DecodeBase64(plain)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	dataURL := "data:image/png;base64,aGVsbG8="
	out2, err := DecodeBase64(dataURL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out2))
}

func TestResolve_SourcePrecedence(t *testing.T) {
	f := NewFetcher(1, 1)

	out, err := f.Resolve([]byte("uploaded"), "http://example.com/img.png", "aGVsbG8=", []byte("aGVsbG8="))
	require.NoError(t, err)
	assert.Equal(t, "uploaded", string(out))

	out, err = f.Resolve(nil, "", "aGVsbG8=", []byte("aGVsbG8="))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestResolve_NoSourceFails(t *testing.T) {
	f := NewFetcher(1, 1)
	_, err := f.Resolve(nil, "", "", nil)
	assert.Error(t, err)
}
