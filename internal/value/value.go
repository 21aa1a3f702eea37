// Package value defines the universal tagged value union that carries row
// data across the MySQL/PostgreSQL boundary. Every driver decodes into this
// type and every driver binds from it; no other representation of a row
// value is allowed to leak between packages.
package value

import (
	"fmt"
	"math/big"
	"net"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindUnsignedInteger
	KindFloat
	KindText
	KindBinary
	KindBoolean
	KindYear
	KindTime
	KindDate
	KindDateTime
	KindDecimal
	KindJSON
	KindUUID
	KindIPNetwork
	KindZeroDateTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindUnsignedInteger:
		return "unsigned_integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindBoolean:
		return "boolean"
	case KindYear:
		return "year"
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	case KindDecimal:
		return "decimal"
	case KindJSON:
		return "json"
	case KindUUID:
		return "uuid"
	case KindIPNetwork:
		return "ip_network"
	case KindZeroDateTime:
		return "zero_datetime"
	default:
		return "unknown"
	}
}

// Value is a closed tagged union. Exactly one of the typed fields is
// meaningful, selected by Kind. Decimal is kept as its verbatim string
// representation (via big.Rat for numeric comparisons) so precision is never
// lost going through an intermediate float.
type Value struct {
	kind Kind

	i     int64
	u     uint64
	f     float64
	text  string
	bin   []byte
	b     bool
	t     time.Time
	dec   string
	jsn   string
	uid   string
	ipnet string
}

// Null returns the Null sentinel.
func Null() Value { return Value{kind: KindNull} }

// ZeroDateTime returns the MySQL zero-datetime sentinel ('0000-00-00 ...').
func ZeroDateTime() Value { return Value{kind: KindZeroDateTime} }

func Integer(v int64) Value         { return Value{kind: KindInteger, i: v} }
func UnsignedInteger(v uint64) Value { return Value{kind: KindUnsignedInteger, u: v} }
func Float(v float64) Value         { return Value{kind: KindFloat, f: v} }
func Text(v string) Value           { return Value{kind: KindText, text: v} }
func Binary(v []byte) Value         { return Value{kind: KindBinary, bin: v} }
func Boolean(v bool) Value          { return Value{kind: KindBoolean, b: v} }
func Year(v int64) Value            { return Value{kind: KindYear, i: v} }
func Time(v time.Time) Value        { return Value{kind: KindTime, t: v} }
func Date(v time.Time) Value        { return Value{kind: KindDate, t: v} }
func DateTime(v time.Time) Value    { return Value{kind: KindDateTime, t: v} }

// Decimal stores a verbatim decimal literal (e.g. "1234.5600").
func Decimal(repr string) Value { return Value{kind: KindDecimal, dec: repr} }

// JSON stores a verbatim JSON text (used also for canonicalised PostgreSQL arrays).
func JSON(repr string) Value { return Value{kind: KindJSON, jsn: repr} }

func UUID(repr string) Value { return Value{kind: KindUUID, uid: repr} }

// IPNetwork stores a verbatim CIDR/INET textual representation.
func IPNetwork(repr string) Value { return Value{kind: KindIPNetwork, ipnet: repr} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsInteger() (int64, bool) {
	if v.kind == KindInteger || v.kind == KindYear {
		return v.i, true
	}
	return 0, false
}

func (v Value) AsUnsignedInteger() (uint64, bool) {
	if v.kind == KindUnsignedInteger {
		return v.u, true
	}
	return 0, false
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind == KindFloat {
		return v.f, true
	}
	return 0, false
}

func (v Value) AsText() (string, bool) {
	if v.kind == KindText {
		return v.text, true
	}
	return "", false
}

func (v Value) AsBinary() ([]byte, bool) {
	if v.kind == KindBinary {
		return v.bin, true
	}
	return nil, false
}

func (v Value) AsBoolean() (bool, bool) {
	if v.kind == KindBoolean {
		return v.b, true
	}
	return false, false
}

func (v Value) AsTime() (time.Time, bool) {
	switch v.kind {
	case KindTime, KindDate, KindDateTime:
		return v.t, true
	default:
		return time.Time{}, false
	}
}

func (v Value) AsDecimal() (string, bool) {
	if v.kind == KindDecimal {
		return v.dec, true
	}
	return "", false
}

func (v Value) AsJSON() (string, bool) {
	if v.kind == KindJSON {
		return v.jsn, true
	}
	return "", false
}

func (v Value) AsUUID() (string, bool) {
	if v.kind == KindUUID {
		return v.uid, true
	}
	return "", false
}

func (v Value) AsIPNetwork() (string, bool) {
	if v.kind == KindIPNetwork {
		return v.ipnet, true
	}
	return "", false
}

// String renders a debug representation suitable for the error log's
// "DATA: <row-debug-repr>" field (spec.md §6).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindZeroDateTime:
		return "0000-00-00 00:00:00"
	case KindInteger, KindYear:
		return fmt.Sprintf("%d", v.i)
	case KindUnsignedInteger:
		return fmt.Sprintf("%d", v.u)
	case KindFloat:
		return fmt.Sprintf("%v", v.f)
	case KindText:
		return v.text
	case KindBinary:
		return fmt.Sprintf("%x", v.bin)
	case KindBoolean:
		return fmt.Sprintf("%v", v.b)
	case KindTime, KindDate, KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	case KindDecimal:
		return v.dec
	case KindJSON:
		return v.jsn
	case KindUUID:
		return v.uid
	case KindIPNetwork:
		return v.ipnet
	default:
		return "<invalid>"
	}
}

// Equal implements the cross-engine equality predicate required by
// verification (spec.md §3, §4.4.1):
//   - Null and ZeroDateTime compare equal to each other (the round-trip
//     bridge admitted because PostgreSQL cannot store zero-dates).
//   - Integer and UnsignedInteger compare equal across the signed/unsigned
//     boundary when numerically equal and non-negative.
//   - Year compares equal to an Integer of the same numeric value.
//   - Every other pairing requires identical Kind and binary-exact payload.
func Equal(a, b Value) bool {
	if bridgesNullZeroDateTime(a, b) {
		return true
	}
	if an, aok := intLike(a); aok {
		if bn, bok := intLike(b); bok {
			return an == bn
		}
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindFloat:
		return a.f == b.f
	case KindUnsignedInteger:
		return a.u == b.u
	case KindText:
		return a.text == b.text
	case KindBinary:
		return string(a.bin) == string(b.bin)
	case KindBoolean:
		return a.b == b.b
	case KindTime, KindDate, KindDateTime:
		return a.t.Equal(b.t)
	case KindDecimal:
		return decimalEqual(a.dec, b.dec)
	case KindJSON:
		return a.jsn == b.jsn
	case KindUUID:
		return a.uid == b.uid
	case KindIPNetwork:
		return a.ipnet == b.ipnet
	default:
		return false
	}
}

func bridgesNullZeroDateTime(a, b Value) bool {
	isBridge := func(v Value) bool { return v.kind == KindNull || v.kind == KindZeroDateTime }
	return isBridge(a) && isBridge(b)
}

// intLike reports the numeric value of a, treating Integer/Year/
// UnsignedInteger uniformly, for the cross-signedness comparison.
func intLike(v Value) (int64, bool) {
	switch v.kind {
	case KindInteger, KindYear:
		return v.i, true
	case KindUnsignedInteger:
		if v.u > 1<<63-1 {
			return 0, false
		}
		return int64(v.u), true
	default:
		return 0, false
	}
}

// decimalEqual compares two decimal literals numerically via big.Rat so that
// "1.50" and "1.5000" compare equal.
func decimalEqual(a, b string) bool {
	if a == b {
		return true
	}
	ra, aok := new(big.Rat).SetString(a)
	rb, bok := new(big.Rat).SetString(b)
	if !aok || !bok {
		return false
	}
	return ra.Cmp(rb) == 0
}

// ParseIPNetwork validates that repr is a syntactically valid CIDR/INET
// literal; drivers use this before constructing an IPNetwork value from raw
// bytes so a malformed address surfaces as a ColumnDecode error rather than
// a silently wrong value.
func ParseIPNetwork(repr string) error {
	if _, _, err := net.ParseCIDR(repr); err == nil {
		return nil
	}
	if net.ParseIP(repr) != nil {
		return nil
	}
	return fmt.Errorf("value: %q is not a valid IP or CIDR network", repr)
}
