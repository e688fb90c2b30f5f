package tilesheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRenames(t *testing.T) {
	input := strings.Join([]string{
		"old_name=New Name",
		"",
		"junk=",
		"  spaced  =  Trimmed  ",
	}, "\n")

	r, err := ParseRenames(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, Renames{
		"old_name": "New Name",
		"junk":     "",
		"spaced":   "Trimmed",
	}, r)
}

func TestParseRenames_MalformedLine(t *testing.T) {
	_, err := ParseRenames(strings.NewReader("no separator here"))
	assert.Error(t, err)
}

func TestRenames_Resolve(t *testing.T) {
	r := Renames{"old_name": "New Name", "junk": ""}

	name, keep := r.Resolve("old_name")
	assert.True(t, keep)
	assert.Equal(t, "New Name", name)

	// Ignore marker drops the file.
	_, keep = r.Resolve("junk")
	assert.False(t, keep)

	// Unmapped names pass through.
	name, keep = r.Resolve("plain")
	assert.True(t, keep)
	assert.Equal(t, "plain", name)
}

func TestLoadRenames_MissingFileIsEmpty(t *testing.T) {
	r, err := LoadRenames(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	assert.Empty(t, r)
}

func TestLoadRenames_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renames.txt")
	require.NoError(t, os.WriteFile(path, []byte("a=b\n"), 0o644))

	r, err := LoadRenames(path)
	require.NoError(t, err)
	assert.Equal(t, Renames{"a": "b"}, r)
}

func TestCheckName(t *testing.T) {
	assert.NoError(t, CheckName("Iron Ingot"))
	assert.Error(t, CheckName("foo_bar"))
	assert.Error(t, CheckName("foo[0]"))
	assert.Error(t, CheckName("foo]"))
}
