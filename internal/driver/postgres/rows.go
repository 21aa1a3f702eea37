package postgres

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fluxef/dbforge/internal/driver"
	"github.com/fluxef/dbforge/internal/value"
)

const (
	pgDateLayout      = "2006-01-02"
	pgTimeLayout      = "15:04:05.999999"
	pgTimestampLayout = "2006-01-02 15:04:05.999999"
	pgTimestampTZ     = "2006-01-02 15:04:05.999999-07"
)

// Stream opens an unbuffered cursor over table, ordered by orderBy when
// non-empty (spec.md §4.2, §5).
func (d *Driver) Stream(ctx context.Context, table string, orderBy []string) (driver.RowSeq, error) {
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
		return nil, fmt.Errorf("postgres: stream %q: %w", table, err)
	}
	cts, err := rows.ColumnTypes()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("postgres: stream %q: %w", table, err)
	}

	return &rowSeq{rows: rows, cts: cts}, nil
}

type rowSeq struct {
	rows *sql.Rows
	cts  []*sql.ColumnType
}

func (s *rowSeq) Next(ctx context.Context) (driver.Row, bool, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, false, fmt.Errorf("postgres: stream: %w", err)
		}
		return nil, false, nil
	}

	raw := make([]sql.RawBytes, len(s.cts))
	scanArgs := make([]any, len(raw))
	for i := range raw {
		scanArgs[i] = &raw[i]
	}
	if err := s.rows.Scan(scanArgs...); err != nil {
		return nil, false, fmt.Errorf("postgres: stream: scan: %w", err)
	}

	row := make(driver.Row, len(s.cts))
	for i, ct := range s.cts {
		v, err := decodeValue(ct, raw[i])
		if err != nil {
			return nil, false, err
		}
		row[i] = driver.ColumnValue{Column: ct.Name(), Value: v}
	}
	return row, true, nil
}

func (s *rowSeq) Close() error { return s.rows.Close() }

// decodeValue interprets one wire value according to its PostgreSQL type
// name. Array types (reported with a leading underscore, PostgreSQL's own
// pg_type naming convention) are canonicalised into a Json value rather than
// a native slice, matching the cross-engine Value union (spec.md §3).
func decodeValue(ct *sql.ColumnType, raw sql.RawBytes) (value.Value, error) {
	if raw == nil {
		return value.Null(), nil
	}
	text := string(raw)
	dbType := strings.ToUpper(ct.DatabaseTypeName())

	if strings.HasPrefix(dbType, "_") {
		return value.JSON(pgArrayLiteralToJSON(text)), nil
	}

	switch dbType {
	case "INT2", "INT4", "INT8":
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return value.Value{}, decodeErr(ct, err)
		}
		return value.Integer(n), nil

	case "NUMERIC":
		return value.Decimal(text), nil

	case "FLOAT4", "FLOAT8":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return value.Value{}, decodeErr(ct, err)
		}
		return value.Float(f), nil

	case "BOOL":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return value.Value{}, decodeErr(ct, err)
		}
		return value.Boolean(b), nil

	case "DATE":
		t, err := time.Parse(pgDateLayout, text)
		if err != nil {
			return value.Value{}, decodeErr(ct, err)
		}
		return value.Date(t), nil

	case "TIME", "TIMETZ":
		t, err := time.Parse(pgTimeLayout, text)
		if err != nil {
			return value.Value{}, decodeErr(ct, err)
		}
		return value.Time(t), nil

	case "TIMESTAMP":
		t, err := time.Parse(pgTimestampLayout, text)
		if err != nil {
			return value.Value{}, decodeErr(ct, err)
		}
		return value.DateTime(t), nil

	case "TIMESTAMPTZ":
		t, err := time.Parse(pgTimestampTZ, text)
		if err != nil {
			return value.Value{}, decodeErr(ct, err)
		}
		// Normalised to UTC: PostgreSQL's wire value already carries an
		// offset, but verification compares instants, not offsets.
		return value.DateTime(t.UTC()), nil

	case "JSON", "JSONB":
		return value.JSON(text), nil

	case "UUID":
		return value.UUID(text), nil

	case "INET", "CIDR":
		if err := value.ParseIPNetwork(text); err != nil {
			return value.Value{}, decodeErr(ct, err)
		}
		return value.IPNetwork(text), nil

	case "BYTEA":
		b, err := decodeBytea(text)
		if err != nil {
			return value.Value{}, decodeErr(ct, err)
		}
		return value.Binary(b), nil

	case "BPCHAR", "VARCHAR", "TEXT", "NAME", "CITEXT":
		return value.Text(text), nil

	default:
		return value.Value{}, &driver.UnsupportedTypeError{Column: ct.Name(), TypeInfo: dbType}
	}
}

// decodeBytea parses lib/pq's default hex output format (\x...).
func decodeBytea(text string) ([]byte, error) {
	if !strings.HasPrefix(text, `\x`) {
		return []byte(text), nil
	}
	return hex.DecodeString(text[2:])
}

// pgArrayLiteralToJSON turns a PostgreSQL array literal such as {1,2,3} into
// a JSON array textual representation, quoting each element as a string
// since the IR does not track the array's element type.
func pgArrayLiteralToJSON(literal string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(literal, "{"), "}")
	if inner == "" {
		return "[]"
	}
	elems := strings.Split(inner, ",")
	quoted := make([]string, len(elems))
	for i, e := range elems {
		quoted[i] = strconv.Quote(strings.TrimSpace(e))
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

func decodeErr(ct *sql.ColumnType, cause error) error {
	return &driver.ColumnDecodeError{Column: ct.Name(), TypeInfo: ct.DatabaseTypeName(), Cause: cause}
}
