// Package record decodes tabular sources into a lazy stream of rows.
//
// A Source is a finite, non-restartable sequence of Rows. Each Row exposes
// up to three decoded fields — a primary integer, an optional secondary
// integer, and an optional join key — resolved once against the source's
// header (or table schema) by column name.
//
// Open selects the concrete source by a naming convention on the location:
// SQLite database suffixes open a table-backed source, everything else is
// read as CSV with transparent gzip decompression and "-" for stdin. Callers
// never branch on the source kind.
package record
