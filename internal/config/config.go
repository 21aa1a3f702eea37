// Package config resolves dbforge's configuration: the per-engine,
// per-direction type-mapping tables and the boolial rules that the drivers
// consult while reading and writing (spec.md §4.1). It follows the
// teacher's internal/parser/toml package shape: a TOML-shaped decode
// target, converted into the structs the rest of the program uses.
package config

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed default.toml
var defaultTOML []byte

// OnMissingType is the policy applied when no type mapping matches an
// encountered engine-native type name.
type OnMissingType string

const (
	OnMissingWarn  OnMissingType = "warn"
	OnMissingError OnMissingType = "error"
)

// General holds the options from the [general] TOML section.
type General struct {
	OnMissingType    OnMissingType
	DefaultCharset   string
	VerifyAfterWrite bool
}

// TypeMap holds the on_read / on_write substitution tables for one engine.
type TypeMap struct {
	OnRead  map[string]string
	OnWrite map[string]string
}

// MySQLRules holds the boolean rules under [mysql.rules].
type MySQLRules struct {
	// UnsignedIntToBigint widens unsigned integers to bigint and clears the
	// unsigned flag when reading MySQL.
	UnsignedIntToBigint bool
	// ZeroDate emits the literal '0000-00-00 00:00:00' for ZeroDateTime
	// values when writing MySQL; otherwise NULL is bound.
	ZeroDate bool
}

// Tables holds the reserved [tables] options.
type Tables struct {
	Renames         map[string]string
	ColumnOverrides map[string]map[string]string
}

// Config is the fully resolved configuration consumed by drivers.
type Config struct {
	General  General
	MySQL    TypeMap
	Postgres TypeMap
	Rules    MySQLRules
	Tables   Tables
}

// --- TOML decode shape -------------------------------------------------

type tomlFile struct {
	General  tomlGeneral `toml:"general"`
	MySQL    tomlEngine  `toml:"mysql"`
	Postgres tomlEngine  `toml:"postgres"`
	Tables   tomlTables  `toml:"tables"`
}

type tomlGeneral struct {
	OnMissingType    string `toml:"on_missing_type"`
	DefaultCharset   string `toml:"default_charset"`
	VerifyAfterWrite bool   `toml:"verify_after_write"`
}

type tomlEngine struct {
	Types tomlTypes `toml:"types"`
	Rules tomlRules `toml:"rules"`
}

type tomlTypes struct {
	OnRead  map[string]string `toml:"on_read"`
	OnWrite map[string]string `toml:"on_write"`
}

type tomlRules struct {
	OnRead  tomlOnReadRules  `toml:"on_read"`
	OnWrite tomlOnWriteRules `toml:"on_write"`
}

type tomlOnReadRules struct {
	UnsignedIntToBigint bool `toml:"unsigned_int_to_bigint"`
}

type tomlOnWriteRules struct {
	ZeroDate bool `toml:"zero_date"`
}

type tomlTables struct {
	Renames         map[string]string            `toml:"renames"`
	ColumnOverrides map[string]map[string]string `toml:"column_overrides"`
}

// Default returns the built-in reference mapping, compiled into the binary
// and parsed through the same TOML decoder as a user-supplied file.
func Default() (*Config, error) {
	return parse(defaultTOML)
}

// Load resolves configuration from path if non-empty, otherwise falls back
// to Default(). A present-but-unreadable or malformed file is a
// ConfigurationError (spec.md §7).
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Cause: err}
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Cause: err}
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Cause: err}
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var tf tomlFile
	if _, err := toml.Decode(string(data), &tf); err != nil {
		return nil, fmt.Errorf("config: decode TOML: %w", err)
	}

	onMissing := OnMissingWarn
	switch strings.ToLower(strings.TrimSpace(tf.General.OnMissingType)) {
	case "", "warn":
		onMissing = OnMissingWarn
	case "error":
		onMissing = OnMissingError
	default:
		return nil, fmt.Errorf("config: general.on_missing_type: unrecognized policy %q", tf.General.OnMissingType)
	}

	cfg := &Config{
		General: General{
			OnMissingType:    onMissing,
			DefaultCharset:   tf.General.DefaultCharset,
			VerifyAfterWrite: tf.General.VerifyAfterWrite,
		},
		MySQL: TypeMap{
			OnRead:  lowerKeys(tf.MySQL.Types.OnRead),
			OnWrite: lowerKeys(tf.MySQL.Types.OnWrite),
		},
		Postgres: TypeMap{
			OnRead:  lowerKeys(tf.Postgres.Types.OnRead),
			OnWrite: lowerKeys(tf.Postgres.Types.OnWrite),
		},
		Rules: MySQLRules{
			UnsignedIntToBigint: tf.MySQL.Rules.OnRead.UnsignedIntToBigint,
			ZeroDate:            tf.MySQL.Rules.OnWrite.ZeroDate,
		},
		Tables: Tables{
			Renames:         tf.Tables.Renames,
			ColumnOverrides: tf.Tables.ColumnOverrides,
		},
	}
	return cfg, nil
}

func lowerKeys(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// ConfigurationError reports a TOML parse failure or an unreadable config
// file (spec.md §7, kind 6).
type ConfigurationError struct {
	Path  string
	Cause error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Path, e.Cause)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }
