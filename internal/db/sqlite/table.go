package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thebtf/assimilator/pkg/table"
)

// LoadTable runs query and returns its result set as a table. Column names
// come from the result set; every cell is converted to its text form and
// NULL becomes the empty string.
func (s *Store) LoadTable(ctx context.Context, query string, args ...any) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	result, err := scanRows(rows, len(columns))
	if err != nil {
		return nil, err
	}
	return table.New(columns, result...)
}

// LoadColumns selects the named columns of a database table in rowid order.
func (s *Store) LoadColumns(ctx context.Context, tableName string, columns ...string) (*table.Table, error) {
	query := "SELECT " + quoteList(columns) + " FROM " + quoteIdent(tableName) + " ORDER BY rowid"
	if len(columns) == 0 {
		query = "SELECT * FROM " + quoteIdent(tableName) + " ORDER BY rowid"
	}
	return s.LoadTable(ctx, query)
}

// scanRows scans every row into text cells.
func scanRows(rows *sql.Rows, width int) ([]table.Row, error) {
	var out []table.Row
	cells := make([]sql.NullString, width)
	dest := make([]interface{}, width)
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(table.Row, width)
		for i, c := range cells {
			row[i] = c.String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	quoted := make([]byte, 0, len(name)+2)
	quoted = append(quoted, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			quoted = append(quoted, '"')
		}
		quoted = append(quoted, name[i])
	}
	return string(append(quoted, '"'))
}

// quoteList quotes and comma-joins identifiers.
func quoteList(names []string) string {
	result := ""
	for i, n := range names {
		if i > 0 {
			result += ", "
		}
		result += quoteIdent(n)
	}
	return result
}
