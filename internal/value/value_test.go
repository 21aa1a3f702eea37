package value

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEqual_NullZeroDateTimeBridge(t *testing.T) {
	assert.True(t, Equal(Null(), ZeroDateTime()))
	assert.True(t, Equal(ZeroDateTime(), Null()))
	assert.True(t, Equal(Null(), Null()))
	assert.True(t, Equal(ZeroDateTime(), ZeroDateTime()))
	assert.False(t, Equal(Null(), Text("")))
}

func TestEqual_CrossSignedness(t *testing.T) {
	assert.True(t, Equal(Integer(42), UnsignedInteger(42)))
	assert.True(t, Equal(UnsignedInteger(42), Integer(42)))
	assert.False(t, Equal(Integer(-1), UnsignedInteger(1)))
	assert.False(t, Equal(Integer(1), UnsignedInteger(2)))
}

func TestEqual_UnsignedIntegerBeyondInt64Range(t *testing.T) {
	const maxUint64 uint64 = 18446744073709551615
	assert.True(t, Equal(UnsignedInteger(maxUint64), UnsignedInteger(maxUint64)))
	assert.False(t, Equal(UnsignedInteger(maxUint64), UnsignedInteger(maxUint64-1)))
}

func TestEqual_YearAsInteger(t *testing.T) {
	assert.True(t, Equal(Year(2024), Integer(2024)))
	assert.True(t, Equal(Integer(2024), Year(2024)))
}

func TestEqual_Decimal(t *testing.T) {
	assert.True(t, Equal(Decimal("1.50"), Decimal("1.5000")))
	assert.False(t, Equal(Decimal("1.50"), Decimal("1.51")))
}

func TestEqual_TimeVariants(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.True(t, Equal(DateTime(now), DateTime(now)))
	assert.False(t, Equal(DateTime(now), Date(now)))
}

func TestEqual_DistinctKindsNeverEqual(t *testing.T) {
	assert.False(t, Equal(Text("1"), Integer(1)))
	assert.False(t, Equal(Boolean(true), Integer(1)))
}

func TestString_Sentinels(t *testing.T) {
	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, "0000-00-00 00:00:00", ZeroDateTime().String())
}

func TestParseIPNetwork(t *testing.T) {
	assert.NoError(t, ParseIPNetwork("10.0.0.0/8"))
	assert.NoError(t, ParseIPNetwork("192.168.1.1"))
	assert.Error(t, ParseIPNetwork("not-an-ip"))
}

func TestEqual_UUID(t *testing.T) {
	id := uuid.New().String()
	assert.True(t, Equal(UUID(id), UUID(id)))
	assert.False(t, Equal(UUID(id), UUID(uuid.New().String())))

	got, ok := UUID(id).AsUUID()
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
