package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	xerrors "Starfish-Go/internal/errors"
)

// FileStore reads artifacts from a directory of "<name>.<network>.json" files.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Lookup implements Store.
func (s *FileStore) Lookup(_ context.Context, name, network string) (Record, error) {
	path := filepath.Join(s.dir, Key(name, network)+".json")
	rec, err := readRecord(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, notFound(name, network)
	}
	if err != nil {
		return Record{}, err
	}
	rec.Name = name
	rec.Network = network
	return rec, nil
}

// LookupAll implements BulkStore by reading every file for network.
func (s *FileStore) LookupAll(_ context.Context, network string) ([]Record, error) {
	suffix := "." + network + ".json"
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取构件目录失败",
			xerrors.WithMetadata("dir", s.dir))
	}
	var out []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), suffix)
		rec, err := readRecord(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		rec.Name = name
		rec.Network = network
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save writes rec under name and network, creating the directory if needed.
func (s *FileStore) Save(name, network string, rec Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("创建构件目录失败: %w", err)
	}
	rec.Name = name
	rec.Network = network
	content, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化构件失败: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, Key(name, network)+".json"), content, 0o644)
}

func readRecord(path string) (Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, err
		}
		return Record{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取构件文件失败",
			xerrors.WithMetadata("path", path))
	}
	var rec Record
	if err := json.Unmarshal(content, &rec); err != nil {
		return Record{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "解析构件文件失败",
			xerrors.WithMetadata("path", path))
	}
	return rec, nil
}
