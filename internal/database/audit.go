package database

import (
	"context"
	"database/sql"
	"fmt"
)

// ExportTableNames lists the tables included in backup dumps.
var ExportTableNames = []string{
	"restaurants",
	"opening_windows",
	"closing_dates",
	"products",
	"orders",
	"ordered_products",
	"order_statuses",
}

// TableNames returns list of table names to export.
func (db *DB) TableNames(ctx context.Context) ([]string, error) {
	return ExportTableNames, nil
}

// TableData returns all rows from a table as maps.
func (db *DB) TableData(ctx context.Context, tableName string) (result []map[string]any, columns []string, err error) {
	// Only known table names are ever interpolated into the query.
	validTable := false
	for _, t := range ExportTableNames {
		if t == tableName {
			validTable = true
			break
		}
	}
	if !validTable {
		return nil, nil, fmt.Errorf("invalid table name: %s", tableName)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, nil, err
	}
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			pk        int
			dflt      sql.NullString
		)
		if errScan := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); errScan != nil {
			rows.Close()
			return nil, nil, errScan
		}
		columns = append(columns, name)
	}
	rows.Close()

	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("table %s has no columns", tableName)
	}

	dataRows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", tableName))
	if err != nil {
		return nil, nil, err
	}
	defer dataRows.Close()

	for dataRows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if errScan := dataRows.Scan(ptrs...); errScan != nil {
			return nil, nil, errScan
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, columns, dataRows.Err()
}
