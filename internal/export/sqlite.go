package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"example.com/flightlog/internal/dataflash"
)

// SQLiteSink writes every type into its own table of a single database file.
// Columns are TEXT holding the exported string form; absent fields are NULL.
type SQLiteSink struct {
	path string
	db   *sql.DB
}

func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &SQLiteSink{path: path, db: db}, nil
}

func (s *SQLiteSink) Location(typ string) string {
	return s.path + "#" + typ
}

// DB exposes the underlying handle for callers that want to query the
// exported tables.
func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}

func (s *SQLiteSink) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteSink) Export(typ string, schema []string, rows []dataflash.Record) error {
	if s.db == nil {
		return fmt.Errorf("sqlite sink closed")
	}
	if len(schema) == 0 {
		return fmt.Errorf("type %s has no columns", typ)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cols := make([]string, len(schema))
	marks := make([]string, len(schema))
	for i, name := range schema {
		cols[i] = quoteIdent(name)
		marks[i] = "?"
	}
	tableName := quoteIdent(typ)
	if _, err := tx.Exec("DROP TABLE IF EXISTS " + tableName); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s TEXT)", tableName, strings.Join(cols, " TEXT, "))); err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName, strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(schema))
	for _, rec := range rows {
		for i, name := range schema {
			if v, ok := cell(rec, name); ok {
				args[i] = v
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
