package record

import (
	"compress/gzip"
	"io"
	"os"
	"strings"
)

// Open resolves a location to a concrete Source.
//
// Locations ending in .db, .sqlite or .sqlite3 open a SQLite table (see
// OpenSQLite); anything else is read as CSV, decompressed transparently when
// gzipped, with "-" meaning stdin. The opts carry source settings that only
// some kinds use (the SQLite table name).
func Open(location string, cols Columns, opts SourceOptions) (Source, error) {
	if hasSQLiteSuffix(location) {
		return OpenSQLite(location, cols, opts.Table)
	}
	return OpenCSV(location, cols)
}

// SourceOptions carries kind-specific settings for Open.
type SourceOptions struct {
	// Table is the table to stream when the location is a SQLite database.
	Table string
}

func hasSQLiteSuffix(location string) bool {
	for _, suffix := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(location, suffix) {
			return true
		}
	}
	return false
}

// multiReadCloser closes every wrapped closer, keeping the first error.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// openReader opens a plain byte stream for a CSV location. "-" is stdin.
// Gzip is detected by magic number (1F 8B) or a .gz suffix.
func openReader(location string) (io.ReadCloser, error) {
	if location == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(location)
	if err != nil {
		return nil, &OpenError{Location: location, Err: err}
	}
	var sig [2]byte
	n, _ := fh.Read(sig[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		_ = fh.Close()
		return nil, &OpenError{Location: location, Err: err}
	}
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(location, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			_ = fh.Close()
			return nil, &OpenError{Location: location, Err: err}
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return fh, nil
}
