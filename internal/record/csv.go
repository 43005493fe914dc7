package record

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
)

// CSVSource streams rows from a headered CSV file, plain or gzipped.
type CSVSource struct {
	location string
	cols     Columns
	rc       io.ReadCloser
	reader   *csv.Reader

	primaryIdx   int
	secondaryIdx int // -1 when not configured
	joinIdx      int // -1 when not configured

	record int // 1-based count of data records read
}

// OpenCSV opens a CSV source and resolves cols against its header row.
// A configured column name missing from the header is a *ParseError.
func OpenCSV(location string, cols Columns) (*CSVSource, error) {
	rc, err := openReader(location)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(rc)
	// Rows may be ragged; a short row reads as absent trailing fields.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		_ = rc.Close()
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Location: location, Message: "empty input: no header row"}
		}
		return nil, &ParseError{Location: location, Message: "cannot read header", Err: err}
	}

	src := &CSVSource{location: location, cols: cols, rc: rc, reader: reader}
	if src.primaryIdx, err = resolveColumn(header, cols.Primary, location, true); err != nil {
		_ = rc.Close()
		return nil, err
	}
	if src.secondaryIdx, err = resolveColumn(header, cols.Secondary, location, false); err != nil {
		_ = rc.Close()
		return nil, err
	}
	if src.joinIdx, err = resolveColumn(header, cols.Join, location, false); err != nil {
		_ = rc.Close()
		return nil, err
	}
	return src, nil
}

// resolveColumn finds name in header. An empty name resolves to -1 unless
// the column is required.
func resolveColumn(header []string, name, location string, required bool) (int, error) {
	if name == "" {
		if required {
			return -1, missingColumn(location, name)
		}
		return -1, nil
	}
	for i, h := range header {
		if h == name {
			return i, nil
		}
	}
	return -1, missingColumn(location, name)
}

// Next returns the next decoded row, or ok=false at end of input.
func (s *CSVSource) Next() (Row, bool, error) {
	fields, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, false, nil
		}
		return Row{}, false, &ParseError{
			Location: s.location,
			Record:   s.record + 1,
			Message:  "malformed record",
			Err:      err,
		}
	}
	s.record++

	var row Row
	row.Primary, row.HasPrimary, err = s.intField(fields, s.primaryIdx, s.cols.Primary)
	if err != nil {
		return Row{}, false, err
	}
	row.Secondary, row.HasSecondary, err = s.intField(fields, s.secondaryIdx, s.cols.Secondary)
	if err != nil {
		return Row{}, false, err
	}
	if s.joinIdx >= 0 && s.joinIdx < len(fields) && fields[s.joinIdx] != "" {
		row.JoinKey = fields[s.joinIdx]
		row.HasJoinKey = true
	}
	return row, true, nil
}

// intField decodes fields[idx] as int64. Out-of-range indices and empty
// cells are absent; anything else must parse.
func (s *CSVSource) intField(fields []string, idx int, column string) (int64, bool, error) {
	if idx < 0 || idx >= len(fields) || fields[idx] == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(fields[idx], 10, 64)
	if err != nil {
		return 0, false, &ParseError{
			Location: s.location,
			Record:   s.record,
			Column:   column,
			Message:  "illegal value " + strconv.Quote(fields[idx]),
			Err:      err,
		}
	}
	return v, true, nil
}

// Close releases the underlying file (and decompressor, if any).
func (s *CSVSource) Close() error {
	return s.rc.Close()
}
