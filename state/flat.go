package state

import (
	"compress/gzip"
	"os"
	"path/filepath"
)

// Flat is flat-file storage rooted at a datadir subdirectory.
type Flat struct {
	// path includes the root directory.
	path string
}

func NewFlatWithRoot(root string) *Flat {
	root = filepath.Clean(root)
	if !filepath.IsAbs(root) {
		root, _ = filepath.Abs(root)
	}
	return &Flat{path: root}
}

func (f *Flat) Joining(paths ...string) *Flat {
	f.path = filepath.Join(append([]string{f.path}, paths...)...)
	return f
}

// Exists returns true if the directory exists.
func (f *Flat) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

func (f *Flat) MkdirAll() error {
	return os.MkdirAll(f.path, 0770)
}

func (f *Flat) Path() string {
	return f.path
}

// GZFileWriter appends gzipped NDJSON to a flat file.
type GZFileWriter struct {
	f  *os.File
	gz *gzip.Writer
}

func (f *Flat) NamedGZWriter(name string) (*GZFileWriter, error) {
	if err := f.MkdirAll(); err != nil {
		return nil, err
	}
	fi, err := os.OpenFile(filepath.Join(f.path, name),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewWriterLevel(fi, gzip.BestCompression)
	if err != nil {
		fi.Close()
		return nil, err
	}
	return &GZFileWriter{f: fi, gz: gz}, nil
}

func (w *GZFileWriter) Write(p []byte) (int, error) {
	return w.gz.Write(p)
}

func (w *GZFileWriter) Close() error {
	if err := w.gz.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
