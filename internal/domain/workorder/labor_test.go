package workorder

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaborTimeEntry(t *testing.T) {
	newEntry := func(t *testing.T, clockIn time.Time) *LaborTimeEntry {
		t.Helper()
		entry, err := NewLaborTimeEntry(uuid.New(), uuid.New(), uuid.New(), uuid.New(),
			clockIn, decimal.NewFromInt(20))
		require.NoError(t, err)
		return entry
	}

	t.Run("new entry is open", func(t *testing.T) {
		entry := newEntry(t, time.Now())
		assert.True(t, entry.IsOpen())
		assert.True(t, entry.Hours.IsZero())
	})

	t.Run("close computes hours and cost", func(t *testing.T) {
		clockIn := time.Now().Add(-90 * time.Minute)
		entry := newEntry(t, clockIn)
		require.NoError(t, entry.Close(clockIn.Add(90*time.Minute)))
		assert.False(t, entry.IsOpen())
		assert.True(t, entry.Hours.Equal(decimal.NewFromFloat(1.5)), "got %s", entry.Hours)
		assert.True(t, entry.Cost().Equal(decimal.NewFromInt(30)))
	})

	t.Run("closing twice fails", func(t *testing.T) {
		clockIn := time.Now().Add(-time.Hour)
		entry := newEntry(t, clockIn)
		require.NoError(t, entry.Close(time.Now()))
		assert.Error(t, entry.Close(time.Now()))
	})

	t.Run("clock-out before clock-in fails", func(t *testing.T) {
		clockIn := time.Now()
		entry := newEntry(t, clockIn)
		assert.Error(t, entry.Close(clockIn.Add(-time.Minute)))
	})

	t.Run("negative rate is rejected", func(t *testing.T) {
		_, err := NewLaborTimeEntry(uuid.New(), uuid.New(), uuid.New(), uuid.New(),
			time.Now(), decimal.NewFromInt(-1))
		assert.Error(t, err)
	})
}
