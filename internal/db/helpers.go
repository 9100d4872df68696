package db

import (
	"database/sql"
	"encoding/json"
	"strings"
)

type QueryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NullIfEmpty helps store optional strings without wiping existing data.
func NullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// HasTable reports whether table exists in the current schema. Query errors,
// bad connections included, read as false.
func HasTable(q QueryRower, table string) bool {
	var name sql.NullString
	err := q.QueryRow(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

func HasColumn(q QueryRower, table, column string) bool {
	var name sql.NullString
	err := q.QueryRow(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND column_name = ?
		LIMIT 1
	`, table, column).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// JSONColumn marshals v for a JSON column. Nil slices are stored as "[]".
func JSONColumn(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(raw) == "null" {
		return "[]", nil
	}
	return string(raw), nil
}

// ScanJSON decodes a JSON column into dst. Blank or NULL leaves dst untouched.
func ScanJSON(raw sql.NullString, dst any) error {
	s := strings.TrimSpace(raw.String)
	if !raw.Valid || s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}
