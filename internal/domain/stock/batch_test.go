package stock

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockBatch(t *testing.T) {
	tenantID := uuid.New()
	productID := uuid.New()

	t.Run("new batch starts pending", func(t *testing.T) {
		batch, err := NewStockBatch(tenantID, productID, "LOT-001")
		require.NoError(t, err)
		assert.Equal(t, BatchQualityPending, batch.QualityStatus)
	})

	t.Run("requires batch number", func(t *testing.T) {
		_, err := NewStockBatch(tenantID, productID, "")
		assert.Error(t, err)
	})

	t.Run("expiry must follow manufacture", func(t *testing.T) {
		batch, _ := NewStockBatch(tenantID, productID, "LOT-002")
		mfg := time.Now()
		expiry := mfg.Add(-time.Hour)
		assert.Error(t, batch.SetDates(&mfg, &expiry))

		expiry = mfg.Add(90 * 24 * time.Hour)
		assert.NoError(t, batch.SetDates(&mfg, &expiry))
	})

	t.Run("rejected batch is terminal", func(t *testing.T) {
		batch, _ := NewStockBatch(tenantID, productID, "LOT-003")
		require.NoError(t, batch.SetQualityStatus(BatchQualityRejected))
		assert.Error(t, batch.SetQualityStatus(BatchQualityReleased))
	})

	t.Run("issuable only when released and unexpired", func(t *testing.T) {
		batch, _ := NewStockBatch(tenantID, productID, "LOT-004")
		now := time.Now()
		assert.False(t, batch.IsIssuable(now))

		require.NoError(t, batch.SetQualityStatus(BatchQualityReleased))
		assert.True(t, batch.IsIssuable(now))

		mfg := now.Add(-48 * time.Hour)
		expiry := now.Add(-time.Hour)
		require.NoError(t, batch.SetDates(&mfg, &expiry))
		assert.False(t, batch.IsIssuable(now))
	})
}
