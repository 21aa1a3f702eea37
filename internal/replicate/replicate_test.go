package replicate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxef/dbforge/internal/config"
	"github.com/fluxef/dbforge/internal/driver"
	"github.com/fluxef/dbforge/internal/schema"
	"github.com/fluxef/dbforge/internal/value"
)

// fakeDriver is an in-memory driver.Driver used to exercise the pipeline and
// verifier without a real database, mirroring the teacher's hand-rolled
// mockGenerator/mockDialect pattern.
type fakeDriver struct {
	tables map[string][]driver.Row
	inserts []driver.Row
	insertErr error
	insertCalls int
	streamOrderBy []string
}

func newFakeDriver() *fakeDriver { return &fakeDriver{tables: map[string][]driver.Row{}} }

func (f *fakeDriver) IsEmpty(ctx context.Context) (bool, error) { return len(f.tables) == 0, nil }
func (f *fakeDriver) Introspect(ctx context.Context, cfg *config.Config) (*schema.Schema, error) {
	return &schema.Schema{}, nil
}
func (f *fakeDriver) DiffAndApply(ctx context.Context, desired *schema.Schema, cfg *config.Config, dryRun, destructive bool) ([]string, error) {
	return nil, nil
}

func (f *fakeDriver) Stream(ctx context.Context, table string, orderBy []string) (driver.RowSeq, error) {
	f.streamOrderBy = orderBy
	rows := append([]driver.Row(nil), f.tables[table]...)
	return &fakeRowSeq{rows: rows}, nil
}

func (f *fakeDriver) InsertChunk(ctx context.Context, table string, rows []driver.Row, cfg *config.Config, dryRun, haltOnError bool, errLog driver.RowErrorLogger) error {
	f.insertCalls++
	if f.insertErr != nil {
		return f.insertErr
	}
	if dryRun {
		return nil
	}
	f.tables[table] = append(f.tables[table], rows...)
	f.inserts = append(f.inserts, rows...)
	return nil
}

func (f *fakeDriver) RowCount(ctx context.Context, table string) (uint64, error) {
	return uint64(len(f.tables[table])), nil
}
func (f *fakeDriver) Close() error { return nil }

type fakeRowSeq struct {
	rows []driver.Row
	pos  int
}

func (s *fakeRowSeq) Next(ctx context.Context) (driver.Row, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}
func (s *fakeRowSeq) Close() error { return nil }

type noopErrLog struct{}

func (noopErrLog) LogRowError(table, errMsg, rowDebugRepr string) error { return nil }

func intRow(id int64) driver.Row {
	return driver.Row{{Column: "id", Value: value.Integer(id)}}
}

func TestReplicateTable_FlushesOnFullAndAtEnd(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()

	var rows []driver.Row
	for i := int64(0); i < 1001; i++ {
		rows = append(rows, intRow(i))
	}
	source.tables["t"] = rows

	table := &schema.Table{Name: "t", Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}}}

	report, err := ReplicateTable(context.Background(), source, target, table, &config.Config{}, false, false, false, noopErrLog{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), report.RowsInserted)
	assert.Len(t, target.tables["t"], 1001)
	assert.Equal(t, 2, target.insertCalls)
}

func TestReplicateTable_ExactChunkTriggersNoResidualFlush(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()

	var rows []driver.Row
	for i := int64(0); i < 1000; i++ {
		rows = append(rows, intRow(i))
	}
	source.tables["t"] = rows

	table := &schema.Table{Name: "t", Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}}}

	report, err := ReplicateTable(context.Background(), source, target, table, &config.Config{}, false, false, false, noopErrLog{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), report.RowsInserted)
	assert.Equal(t, 1, target.insertCalls)
}

func TestReplicateTable_DryRunInsertsNothing(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()
	source.tables["t"] = []driver.Row{intRow(1), intRow(2)}

	table := &schema.Table{Name: "t", Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}}}

	report, err := ReplicateTable(context.Background(), source, target, table, &config.Config{}, true, false, false, noopErrLog{})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), report.RowsInserted)
	assert.Empty(t, target.tables["t"])
}

func TestReplicateTable_VerifiesWhenEnabled(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()
	source.tables["t"] = []driver.Row{intRow(1), intRow(2)}

	table := &schema.Table{Name: "t", Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}}}

	report, err := ReplicateTable(context.Background(), source, target, table, &config.Config{}, false, false, true, noopErrLog{})
	require.NoError(t, err)
	assert.True(t, report.Verified)
}

// partialFailDriver inserts every row except one designated id, mimicking a
// per-row fallback that logs-and-skips a single bad row instead of halting.
type partialFailDriver struct {
	*fakeDriver
	skipID int64
}

func (f *partialFailDriver) InsertChunk(ctx context.Context, table string, rows []driver.Row, cfg *config.Config, dryRun, haltOnError bool, errLog driver.RowErrorLogger) error {
	if dryRun {
		return nil
	}
	kept := rows[:0:0]
	for _, row := range rows {
		id, _ := row[0].Value.AsInteger()
		if id == f.skipID {
			continue
		}
		kept = append(kept, row)
	}
	f.tables[table] = append(f.tables[table], kept...)
	return nil
}

func TestReplicateTable_RowsInsertedReflectsSkippedRow(t *testing.T) {
	source := newFakeDriver()
	target := &partialFailDriver{fakeDriver: newFakeDriver(), skipID: 1}
	source.tables["t"] = []driver.Row{intRow(0), intRow(1), intRow(2)}

	table := &schema.Table{Name: "t", Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}}}

	report, err := ReplicateTable(context.Background(), source, target, table, &config.Config{}, false, false, false, noopErrLog{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), report.RowsInserted)
	assert.Len(t, target.tables["t"], 2)
}

func TestReplicateTable_PropagatesInsertError(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()
	source.tables["t"] = []driver.Row{intRow(1)}
	target.insertErr = errors.New("unique constraint violation")

	table := &schema.Table{Name: "t", Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}}}

	_, err := ReplicateTable(context.Background(), source, target, table, &config.Config{}, false, true, false, noopErrLog{})
	assert.Error(t, err)
}
