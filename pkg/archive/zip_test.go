package archive

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenZip_TopLevelOnly(t *testing.T) {
	data := buildZip(t, map[string]string{
		"info.dat":     "manifest",
		"a.dat":        "aa",
		"sub/deep.dat": "deep",
	})

	z, err := OpenZip(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = z.Close() }()

	entries, err := fs.ReadDir(z, ".")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"a.dat", "info.dat"}, names)

	content, err := fs.ReadFile(z, "info.dat")
	require.NoError(t, err)
	assert.Equal(t, "manifest", string(content))

	_, err = z.Open("sub/deep.dat")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenZip_EntriesBySize(t *testing.T) {
	data := buildZip(t, map[string]string{
		"small": "1",
		"large": "1234567890",
		"mid":   "12345",
	})

	z, err := OpenZip(context.Background(), io.MultiReader(bytes.NewReader(data)))
	require.NoError(t, err)
	defer func() { _ = z.Close() }()

	sorted := z.EntriesBySize()
	require.Len(t, sorted, 3)
	assert.Equal(t, "large", sorted[0].NameInArchive)
	assert.Equal(t, "mid", sorted[1].NameInArchive)
	assert.Equal(t, "small", sorted[2].NameInArchive)
}

func TestOpenZip_NilSource(t *testing.T) {
	_, err := OpenZip(context.Background(), nil)
	assert.Error(t, err)
}
