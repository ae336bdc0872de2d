package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body><p>hi</p></body></html>"), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, d.Path)
	assert.Equal(t, "hi", d.Find("p").Text())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.html"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))
}

func TestLoad_NoMarkup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.html")
	require.NoError(t, os.WriteFile(path, []byte("just plain text, no tags"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))
}

func TestParse_NoMarkup(t *testing.T) {
	_, err := Parse("inline.html", "nothing here")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))
}
