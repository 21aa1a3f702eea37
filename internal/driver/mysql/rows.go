package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fluxef/dbforge/internal/driver"
	"github.com/fluxef/dbforge/internal/value"
)

const (
	mysqlDateLayout     = "2006-01-02"
	mysqlDateTimeLayout = "2006-01-02 15:04:05.999999"
	mysqlTimeLayout     = "15:04:05.999999"
	zeroDatePrefix      = "0000-00-00"
)

// Stream opens an unbuffered cursor over table, ordered by orderBy when
// non-empty (spec.md §4.2, §5). Column type information is read once from
// information_schema so that TINYINT(1)/unsigned-width decisions (invisible
// on the wire once a query runs) are made consistently with Introspect.
func (d *Driver) Stream(ctx context.Context, table string, orderBy []string) (driver.RowSeq, error) {
	colTypes, err := d.columnTypeStrings(ctx, table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s", quoteIdentifier(table))
	if len(orderBy) > 0 {
		quoted := make([]string, len(orderBy))
		for i, c := range orderBy {
			quoted[i] = quoteIdentifier(c)
		}
		query += " ORDER BY " + strings.Join(quoted, ", ")
	}

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("mysql: stream %q: %w", table, err)
	}
	cts, err := rows.ColumnTypes()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("mysql: stream %q: %w", table, err)
	}

	return &rowSeq{rows: rows, cts: cts, colTypes: colTypes}, nil
}

func (d *Driver) columnTypeStrings(ctx context.Context, table string) (map[string]string, error) {
	const q = `
SELECT column_name, column_type FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?`

	rows, err := d.db.QueryContext(ctx, q, d.dbName, table)
	if err != nil {
		return nil, fmt.Errorf("mysql: column types %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	m := map[string]string{}
	for rows.Next() {
		var name, columnType string
		if err := rows.Scan(&name, &columnType); err != nil {
			return nil, fmt.Errorf("mysql: column types %q: %w", table, err)
		}
		m[name] = strings.ToLower(columnType)
	}
	return m, rows.Err()
}

type rowSeq struct {
	rows     *sql.Rows
	cts      []*sql.ColumnType
	colTypes map[string]string
}

func (s *rowSeq) Next(ctx context.Context) (driver.Row, bool, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, false, fmt.Errorf("mysql: stream: %w", err)
		}
		return nil, false, nil
	}

	raw := make([]sql.RawBytes, len(s.cts))
	scanArgs := make([]any, len(raw))
	for i := range raw {
		scanArgs[i] = &raw[i]
	}
	if err := s.rows.Scan(scanArgs...); err != nil {
		return nil, false, fmt.Errorf("mysql: stream: scan: %w", err)
	}

	row := make(driver.Row, len(s.cts))
	for i, ct := range s.cts {
		v, err := decodeValue(ct, raw[i], s.colTypes[ct.Name()])
		if err != nil {
			return nil, false, err
		}
		row[i] = driver.ColumnValue{Column: ct.Name(), Value: v}
	}
	return row, true, nil
}

func (s *rowSeq) Close() error { return s.rows.Close() }

// decodeValue interprets one wire value according to its MySQL type. Always
// fatal on an unrecognised type or malformed bytes (spec.md §7, kinds 2/3).
func decodeValue(ct *sql.ColumnType, raw sql.RawBytes, columnType string) (value.Value, error) {
	if raw == nil {
		return value.Null(), nil
	}
	text := string(raw)
	dbType := strings.ToUpper(ct.DatabaseTypeName())
	unsigned := strings.Contains(columnType, "unsigned")

	switch dbType {
	case "TINYINT":
		if strings.Contains(columnType, "tinyint(1)") {
			n, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return value.Value{}, decodeErr(ct, columnType, err)
			}
			return value.Boolean(n != 0), nil
		}
		return decodeIntegral(ct, columnType, text, unsigned)

	case "SMALLINT", "MEDIUMINT", "INT", "INT24", "BIGINT":
		return decodeIntegral(ct, columnType, text, unsigned)

	case "YEAR":
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return value.Value{}, decodeErr(ct, columnType, err)
		}
		return value.Year(n), nil

	case "DECIMAL":
		return value.Decimal(text), nil

	case "FLOAT", "DOUBLE":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return value.Value{}, decodeErr(ct, columnType, err)
		}
		return value.Float(f), nil

	case "DATE":
		if strings.HasPrefix(text, zeroDatePrefix) {
			return value.ZeroDateTime(), nil
		}
		t, err := time.Parse(mysqlDateLayout, text)
		if err != nil {
			return value.Value{}, decodeErr(ct, columnType, err)
		}
		return value.Date(t), nil

	case "DATETIME", "TIMESTAMP":
		if strings.HasPrefix(text, zeroDatePrefix) {
			return value.ZeroDateTime(), nil
		}
		t, err := time.Parse(mysqlDateTimeLayout, text)
		if err != nil {
			return value.Value{}, decodeErr(ct, columnType, err)
		}
		return value.DateTime(t), nil

	case "TIME":
		t, err := time.Parse(mysqlTimeLayout, text)
		if err != nil {
			return value.Value{}, decodeErr(ct, columnType, err)
		}
		return value.Time(t), nil

	case "JSON":
		return value.JSON(text), nil

	case "BIT", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "GEOMETRY":
		cp := append([]byte(nil), raw...)
		return value.Binary(cp), nil

	case "CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM", "SET":
		return value.Text(text), nil

	default:
		return value.Value{}, &driver.UnsupportedTypeError{Column: ct.Name(), TypeInfo: dbType}
	}
}

func decodeIntegral(ct *sql.ColumnType, columnType, text string, unsigned bool) (value.Value, error) {
	if unsigned {
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return value.Value{}, decodeErr(ct, columnType, err)
		}
		return value.UnsignedInteger(n), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return value.Value{}, decodeErr(ct, columnType, err)
	}
	return value.Integer(n), nil
}

func decodeErr(ct *sql.ColumnType, columnType string, cause error) error {
	return &driver.ColumnDecodeError{Column: ct.Name(), TypeInfo: columnType, Cause: cause}
}
