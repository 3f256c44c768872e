package fileutil

import (
	"os"
	"path/filepath"
	"strings"
)

// AtomicWriteFile writes data to a temporary file in the same directory and
// renames it over filename, so readers never see a partial file.
// AtomicWriteFile 将数据写入同目录临时文件后重命名为目标文件。
func AtomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename) // #nosec G703 // Safe: filepath.Dir cleans the path preventing traversal
	tmp, err := os.CreateTemp(dir, ".winelog-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := writeSynced(tmp, data, perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filename) // #nosec G703 // filename is validated by caller
}

func writeSynced(f *os.File, data []byte, perm os.FileMode) error {
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	return f.Sync()
}

// ReadLines returns the trimmed, non-empty lines of a file, skipping lines
// starting with '#'. A missing file yields no lines and no error.
// ReadLines 读取文件中的所有非空行，跳过以 '#' 开头的注释行。
func ReadLines(filePath string) ([]string, error) {
	if filePath == "" {
		return nil, nil
	}
	safePath := filepath.Clean(filePath)  // Sanitize path to prevent directory traversal
	content, err := os.ReadFile(safePath) // #nosec G304 // filePath is sanitized with filepath.Clean
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines, nil
}
