package config

import "strings"

// MapReadType resolves an engine-native type spelling to an IR type name
// when reading from engine. Lookup is case-insensitive with two-step
// resolution: first the full parameterised spelling (e.g. "int(11)
// unsigned"), then the bare family ("int"). If neither matches, the input
// passes through verbatim (spec.md §4.1).
func (c *Config) MapReadType(engine, nativeType string) string {
	return resolve(c.typeMapFor(engine).OnRead, nativeType)
}

// MapWriteType resolves an IR type name to an engine-native spelling when
// writing to engine, with the same two-step, case-insensitive resolution.
func (c *Config) MapWriteType(engine, irType string) string {
	return resolve(c.typeMapFor(engine).OnWrite, irType)
}

func (c *Config) typeMapFor(engine string) TypeMap {
	switch strings.ToLower(engine) {
	case "mysql":
		return c.MySQL
	case "postgres", "postgresql":
		return c.Postgres
	default:
		return TypeMap{}
	}
}

func resolve(table map[string]string, input string) string {
	if table == nil {
		return input
	}
	key := strings.ToLower(strings.TrimSpace(input))
	if v, ok := table[key]; ok {
		return v
	}
	if family := bareFamily(key); family != key {
		if v, ok := table[family]; ok {
			return v
		}
	}
	return input
}

// bareFamily strips a parameterised type spelling down to its family name,
// e.g. "int(11) unsigned" -> "int", "varchar(255)" -> "varchar".
func bareFamily(spelling string) string {
	s := spelling
	if i := strings.IndexAny(s, "( "); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
