// Package fs implements learnsearch.DocumentStore as a directory of JSON
// files, one per document.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.DocumentStore = (*DocumentStore)(nil)

// fileRe matches record file names and captures the sequence number.
var fileRe = regexp.MustCompile(`^article_(\d+)\.json$`)

// DocumentStore writes each document to article_<seq>.json under dir. Writes
// go to a temporary file that is synced and renamed into place, so readers
// never observe a partial record.
type DocumentStore struct {
	mu     sync.Mutex
	dir    string
	next   int
	logger *slog.Logger
}

// NewDocumentStore opens dir, creating it if needed. Sequence numbers continue
// after the highest existing record so earlier runs are never overwritten.
func NewDocumentStore(dir string, logger *slog.Logger) (*DocumentStore, error) {
	if dir == "" {
		return nil, learnsearch.Errorf(learnsearch.ECONFIG, "store directory required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, learnsearch.Errorf(learnsearch.ESTORAGE, "create store directory: %v", err)
	}

	files, err := recordFiles(dir)
	if err != nil {
		return nil, err
	}
	next := 1
	if n := len(files); n > 0 {
		next = files[n-1].seq + 1
	}

	return &DocumentStore{
		dir:    dir,
		next:   next,
		logger: logger.With("component", "fs_store"),
	}, nil
}

// Dir returns the directory the store writes to.
func (s *DocumentStore) Dir() string {
	return s.dir
}

// Save persists doc as the next numbered record.
func (s *DocumentStore) Save(ctx context.Context, doc *learnsearch.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return learnsearch.Errorf(learnsearch.ESTORAGE, "encode document %s: %v", doc.URL, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := fmt.Sprintf("article_%d.json", s.next)
	if err := writeFileAtomic(s.dir, name, data); err != nil {
		return learnsearch.Errorf(learnsearch.ESTORAGE, "write %s: %v", name, err)
	}
	s.next++
	return nil
}

// LoadAll returns every stored document in sequence order. Records that
// cannot be read or decoded are logged and skipped.
func (s *DocumentStore) LoadAll(ctx context.Context) ([]*learnsearch.Document, error) {
	files, err := recordFiles(s.dir)
	if err != nil {
		return nil, err
	}

	docs := make([]*learnsearch.Document, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.dir, f.name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable record", "path", path, "err", err)
			continue
		}
		var doc learnsearch.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			s.logger.Warn("skipping malformed record", "path", path, "err", err)
			continue
		}
		if err := doc.Validate(); err != nil {
			s.logger.Warn("skipping invalid record", "path", path, "err", err)
			continue
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

type recordFile struct {
	name string
	seq  int
}

// recordFiles lists record files in dir sorted by sequence number.
// A missing directory has no records.
func recordFiles(dir string) ([]recordFile, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, learnsearch.Errorf(learnsearch.ESTORAGE, "read store directory: %v", err)
	}

	var files []recordFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		seq, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, recordFile{name: e.Name(), seq: seq})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].seq < files[j].seq })
	return files, nil
}

// writeFileAtomic writes data to dir/name via a synced temp file and rename.
func writeFileAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		cleanup()
		return err
	}
	return nil
}
