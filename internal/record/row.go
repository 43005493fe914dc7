package record

// Row is one decoded record. A Row is immutable once produced; ownership
// passes to whichever consumer pulls it next.
//
// Absent fields (empty CSV cells, SQL NULLs, unconfigured columns) are
// reported through the Has* flags. Absence is a missing observation, never
// an error.
type Row struct {
	Primary    int64
	HasPrimary bool

	Secondary    int64
	HasSecondary bool

	JoinKey    string
	HasJoinKey bool
}

// Columns names the fields a Source must resolve against its header.
// Secondary and Join are optional; an empty name means the field is not
// configured and every Row reports it absent.
type Columns struct {
	Primary   string
	Secondary string
	Join      string
}

// Source produces decoded rows in file order.
//
// Next returns ok=false once the source is exhausted. A malformed field
// (present but not decodable as an integer) fails with a *ParseError;
// exhaustion is not an error.
type Source interface {
	Next() (row Row, ok bool, err error)
	Close() error
}
