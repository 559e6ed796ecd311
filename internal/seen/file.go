package seen

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// FileBackend stores keys as a sorted newline-delimited UTF-8 file. Insertion
// order lives in a sidecar file next to it so eviction stays oldest-first
// across runs.
type FileBackend struct {
	path      string
	orderPath string
}

// FilePath returns the conventional store path for a region.
func FilePath(stateDir, region string) string {
	name := "seen.txt"
	if region = strings.TrimSpace(region); region != "" {
		name = "seen_" + strings.ToLower(region) + ".txt"
	}
	return filepath.Join(stateDir, name)
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{
		path:      path,
		orderPath: strings.TrimSuffix(path, filepath.Ext(path)) + ".order",
	}
}

func (b *FileBackend) Describe() string {
	return "file:" + b.path
}

func (b *FileBackend) Load(_ context.Context) ([]string, error) {
	keys, err := readKeyFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ordered, err := readKeyFile(b.orderPath)
	if err != nil || !sameMembers(keys, ordered) {
		return keys, nil
	}
	return ordered, nil
}

func (b *FileBackend) Save(_ context.Context, keys []string) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	if err := writeKeyFile(b.path, sorted); err != nil {
		return err
	}
	return writeKeyFile(b.orderPath, keys)
}

func readKeyFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%s is not valid UTF-8", path)
	}

	var keys []string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			keys = append(keys, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return keys, nil
}

func writeKeyFile(path string, keys []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	writer := bufio.NewWriter(tmp)
	for _, key := range keys {
		if _, err := writer.WriteString(key + "\n"); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := writer.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func sameMembers(left, right []string) bool {
	if len(left) != len(right) {
		return false
	}
	set := make(map[string]struct{}, len(left))
	for _, key := range left {
		set[key] = struct{}{}
	}
	for _, key := range right {
		if _, ok := set[key]; !ok {
			return false
		}
	}
	return len(set) == len(left)
}
