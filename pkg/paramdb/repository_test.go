package paramdb

import (
	"bytes"
	"log"
	"testing"

	"github.com/roffe/canmux/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := Open(Config{Path: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Health())
	return db.Repository()
}

func TestGetDefaultsToZero(t *testing.T) {
	r := openTestDB(t)
	v, err := r.Get(signal.KilometerToMiles)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestSetAndGet(t *testing.T) {
	r := openTestDB(t)
	change, err := r.Set(signal.SwitchDataInfo207, 3)
	require.NoError(t, err)
	assert.Len(t, change.ID, 26)
	assert.Equal(t, "SwitchDataInfo207", change.Name)
	assert.Zero(t, change.OldValue)
	assert.Equal(t, uint32(3), change.NewValue)

	v, err := r.Get(signal.SwitchDataInfo207)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)

	change, err = r.Set(signal.SwitchDataInfo207, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), change.OldValue)
}

func TestSetValidatesRange(t *testing.T) {
	tests := []struct {
		param signal.Param
		value uint32
		ok    bool
	}{
		{signal.KilometerToMiles, 1, true},
		{signal.KilometerToMiles, 2, false},
		{signal.SwitchDataInfo207, 3, true},
		{signal.SwitchDataInfo207, 4, false},
		{signal.SwitchDataInfo306, 1, true},
		{signal.SwitchDataInfo306, 100, false},
	}
	r := openTestDB(t)
	for _, tt := range tests {
		_, err := r.Set(tt.param, tt.value)
		if tt.ok {
			assert.NoError(t, err, "%s=%d", tt.param, tt.value)
			continue
		}
		assert.ErrorIs(t, err, ErrOutOfRange, "%s=%d", tt.param, tt.value)
	}

	_, err := r.Set(signal.Param(42), 0)
	assert.ErrorIs(t, err, signal.ErrUnknownParam)
}

func TestHistoryNewestFirst(t *testing.T) {
	r := openTestDB(t)
	for _, v := range []uint32{1, 0, 1} {
		_, err := r.Set(signal.KilometerToMiles, v)
		require.NoError(t, err)
	}
	_, err := r.Set(signal.SwitchDataInfo306, 1)
	require.NoError(t, err)

	changes, err := r.History(signal.KilometerToMiles, 0)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, []uint32{1, 0, 1}, []uint32{changes[0].NewValue, changes[1].NewValue, changes[2].NewValue})
	assert.Equal(t, uint32(0), changes[0].OldValue)

	changes, err = r.History(signal.KilometerToMiles, 1)
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestAllAndLoad(t *testing.T) {
	r := openTestDB(t)
	_, err := r.Set(signal.KilometerToMiles, 1)
	require.NoError(t, err)
	_, err = r.Set(signal.SwitchDataInfo207, 2)
	require.NoError(t, err)

	all, err := r.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "KilometerToMiles", all[0].Name)
	assert.Equal(t, uint32(1), all[0].Value)
	assert.Equal(t, uint32(2), all[1].Value)
	assert.Zero(t, all[2].Value)
	assert.True(t, all[2].UpdatedAt.IsZero())

	store := signal.NewStore()
	require.NoError(t, r.Load(store))
	assert.Equal(t, uint32(1), store.Param(signal.KilometerToMiles))
	assert.Equal(t, uint32(2), store.Param(signal.SwitchDataInfo207))
	assert.Zero(t, store.Param(signal.SwitchDataInfo306))
}

func TestOpenLogs(t *testing.T) {
	var buf bytes.Buffer
	db, err := Open(Config{Path: ":memory:"}, log.New(&buf, "", 0))
	require.NoError(t, err)
	defer db.Close()
	assert.Contains(t, buf.String(), "parameter database: :memory:")
}
