package source

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// DriverName maps user-facing driver names onto registered database/sql
// drivers.
func DriverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return "sqlite", nil
	case "pgx", "postgres", "postgresql":
		return "pgx", nil
	case "sqlserver", "mssql":
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("unsupported driver: %s (use sqlite|postgres|sqlserver)", driver)
	}
}

// OpenDB opens and pings a database.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	name, err := DriverName(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}
	return db, nil
}

// LoadQuery runs query against driver/dsn and returns the result set.
func LoadQuery(ctx context.Context, driver, dsn, query string, opt Options) (*table.Table, Info, error) {
	db, err := OpenDB(ctx, driver, dsn)
	if err != nil {
		return nil, Info{}, err
	}
	defer db.Close()
	return QueryTable(ctx, db, query, opt)
}

// QueryTable materialises the rows of query. Numeric driver values become
// numbers, NULL becomes missing and text goes through the missing markers.
func QueryTable(ctx context.Context, db *sql.DB, query string, opt Options) (*table.Table, Info, error) {
	info := Info{Name: "query"}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, info, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, info, fmt.Errorf("read columns: %w", err)
	}
	missing := opt.missing()
	values := make([][]table.Value, len(names))
	// Scan destinations must be pointers.
	raw := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		info.Rows++
		if opt.MaxRows > 0 && info.Loaded >= opt.MaxRows {
			continue
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, info, fmt.Errorf("scan row %d: %w", info.Rows, err)
		}
		info.Loaded++
		for i, v := range raw {
			values[i] = append(values[i], sqlValue(v, missing))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, info, fmt.Errorf("iterate rows: %w", err)
	}

	header := append([]string(nil), names...)
	// Reuse FromRecords naming rules (blank and duplicate column names).
	shell, err := table.FromRecords(header, nil, missing)
	if err != nil {
		return nil, info, err
	}
	cols := make([]table.Column, len(names))
	for i, name := range shell.Names() {
		vals := values[i]
		if vals == nil {
			vals = []table.Value{}
		}
		cols[i] = table.Column{Name: name, Values: vals}
	}
	t, err := table.New(cols...)
	if err != nil {
		return nil, info, err
	}
	return t, info, nil
}

func sqlValue(v any, missing table.MissingSet) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Missing()
	case int64:
		return table.Num(float64(x))
	case int32:
		return table.Num(float64(x))
	case int:
		return table.Num(float64(x))
	case float64:
		return table.Num(x)
	case float32:
		return table.Num(float64(x))
	case bool:
		return table.Str(strconv.FormatBool(x))
	case time.Time:
		return table.Str(x.Format(time.RFC3339))
	case []byte:
		return missing.Cell(string(x))
	case string:
		return missing.Cell(x)
	default:
		return missing.Cell(fmt.Sprint(x))
	}
}
