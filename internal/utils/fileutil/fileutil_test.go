package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAtomicWriteFile tests writing and replacing a file.
// TestAtomicWriteFile 测试写入与替换文件。
func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	require.NoError(t, AtomicWriteFile(path, []byte("first"), 0600))
	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file left behind")

	assert.Error(t, AtomicWriteFile(filepath.Join(dir, "missing", "out.yaml"), nil, 0600))
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte("System\n\n  # comment\n Application \nSecurity"), 0600))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"System", "Application", "Security"}, lines)

	lines, err = ReadLines(filepath.Join(t.TempDir(), "absent"))
	assert.NoError(t, err)
	assert.Nil(t, lines)

	lines, err = ReadLines("")
	assert.NoError(t, err)
	assert.Nil(t, lines)
}
