package dump

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalSink stores snapshots as files under a root directory. Writes
// go through a temporary file plus rename so a crashed export never
// leaves a half-written snapshot under its final name.
type LocalSink struct {
	root string
}

// NewLocalSink creates a LocalSink rooted at dir, creating it if
// needed.
func NewLocalSink(dir string) (*LocalSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalSink{root: dir}, nil
}

// Put implements Sink.
func (s *LocalSink) Put(ctx context.Context, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.root, name)
	tmp, err := os.CreateTemp(s.root, name+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	return syncDir(s.root)
}

// syncDir flushes the directory entry so the rename survives a crash.
func syncDir(dir string) error {
	f, err := os.OpenFile(dir, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
