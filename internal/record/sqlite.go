package record

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultTable is the table streamed from a SQLite location when the
// configuration does not name one.
const DefaultTable = "records"

// SQLiteSource streams rows from one table of a SQLite database in rowid
// order. NULL fields are absent values; TEXT fields are decoded the same way
// CSV cells are.
type SQLiteSource struct {
	location string
	cols     Columns
	db       *sql.DB
	rows     *sql.Rows
	record   int
}

// OpenSQLite opens the database read-only and validates that the configured
// columns exist on table before streaming. A missing table or column is a
// *ParseError; an unreadable database is an *OpenError.
func OpenSQLite(location string, cols Columns, table string) (*SQLiteSource, error) {
	if table == "" {
		table = DefaultTable
	}
	db, err := sql.Open("sqlite3", "file:"+location+"?mode=ro")
	if err != nil {
		return nil, &OpenError{Location: location, Err: err}
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &OpenError{Location: location, Err: err}
	}
	// One sequential reader; no need for a pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := checkColumns(db, location, table, cols); err != nil {
		_ = db.Close()
		return nil, err
	}

	selectList := []string{quoteIdent(cols.Primary)}
	for _, name := range []string{cols.Secondary, cols.Join} {
		if name != "" {
			selectList = append(selectList, quoteIdent(name))
		} else {
			selectList = append(selectList, "NULL")
		}
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid",
		strings.Join(selectList, ", "), quoteIdent(table))
	rows, err := db.Query(query)
	if err != nil {
		_ = db.Close()
		return nil, &OpenError{Location: location, Err: err}
	}
	return &SQLiteSource{location: location, cols: cols, db: db, rows: rows}, nil
}

// checkColumns verifies the configured column names against the table schema
// so absence surfaces as the same error class a CSV header miss does.
func checkColumns(db *sql.DB, location, table string, cols Columns) error {
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return &OpenError{Location: location, Err: err}
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return &OpenError{Location: location, Err: err}
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return &OpenError{Location: location, Err: err}
	}
	if len(present) == 0 {
		return &ParseError{Location: location, Message: fmt.Sprintf("no such table %q", table)}
	}
	for _, name := range []string{cols.Primary, cols.Secondary, cols.Join} {
		if name != "" && !present[name] {
			return missingColumn(location, name)
		}
	}
	return nil
}

// Next returns the next decoded row, or ok=false once the table is drained.
func (s *SQLiteSource) Next() (Row, bool, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return Row{}, false, &OpenError{Location: s.location, Err: err}
		}
		return Row{}, false, nil
	}
	s.record++

	var primary, secondary, join sql.NullString
	if err := s.rows.Scan(&primary, &secondary, &join); err != nil {
		return Row{}, false, &ParseError{
			Location: s.location,
			Record:   s.record,
			Message:  "malformed record",
			Err:      err,
		}
	}

	var row Row
	var err error
	row.Primary, row.HasPrimary, err = s.intValue(primary, s.cols.Primary)
	if err != nil {
		return Row{}, false, err
	}
	row.Secondary, row.HasSecondary, err = s.intValue(secondary, s.cols.Secondary)
	if err != nil {
		return Row{}, false, err
	}
	if join.Valid && join.String != "" {
		row.JoinKey = join.String
		row.HasJoinKey = true
	}
	return row, true, nil
}

func (s *SQLiteSource) intValue(v sql.NullString, column string) (int64, bool, error) {
	if !v.Valid || v.String == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(v.String, 10, 64)
	if err != nil {
		return 0, false, &ParseError{
			Location: s.location,
			Record:   s.record,
			Column:   column,
			Message:  "illegal value " + strconv.Quote(v.String),
			Err:      err,
		}
	}
	return n, true, nil
}

// Close releases the result set and the database handle.
func (s *SQLiteSource) Close() error {
	err := s.rows.Close()
	if cerr := s.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
