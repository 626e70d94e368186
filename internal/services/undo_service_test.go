package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradedesk/internal/repos"
	"gradedesk/internal/services"
)

func newUndo(db *sqlx.DB) *services.UndoService {
	return services.NewUndoService(db, repos.NewHoldingRepo(db), repos.NewAssetRepo(db))
}

// buyAsset finalizes a one-line session so undo operates on records created by
// the real checkout path.
func buyAsset(t *testing.T, db *sqlx.DB, userID, assetID string, price float64) {
	t.Helper()
	sess, _ := openSessionWith(t, db, userID, map[string]float64{assetID: price}, []string{assetID})
	_, err := newCheckout(db).Finalize(context.Background(), userID, sess.ID, services.FinalizeRequest{
		PaymentMethod: "cash", AmountPaid: price, BuyerName: "Dana",
	})
	require.NoError(t, err)
}

func TestUndoPurchaseRemovesExactlyOne(t *testing.T) {
	db := memdb(t)
	buyAsset(t, db, "buyer-1", "asset-a", 40)
	buyAsset(t, db, "buyer-1", "asset-b", 60)

	res, err := newUndo(db).UndoPurchase("buyer-1", "asset-a")
	require.NoError(t, err)

	assert.Equal(t, "asset-a", res.AssetID)
	assert.Equal(t, 40.0, res.PurchasePrice)
	assert.Equal(t, int64(1), res.HoldingsGone)
	assert.Equal(t, int64(1), res.TxnsGone)
	assert.Equal(t, "1999 Charizard Holo #4 (PSA 9)", res.Asset.Display())

	// the other purchase is untouched
	assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM holdings WHERE asset_id='asset-a'`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM holdings WHERE asset_id='asset-b'`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM purchase_txns`))
}

func TestUndoPurchaseLeavesOtherBuyersAlone(t *testing.T) {
	db := memdb(t)
	buyAsset(t, db, "buyer-1", "asset-a", 40)
	buyAsset(t, db, "buyer-2", "asset-a", 45)

	_, err := newUndo(db).UndoPurchase("buyer-1", "asset-a")
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM holdings WHERE user_id='buyer-2' AND asset_id='asset-a'`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM purchase_txns WHERE user_id='buyer-2'`))
	assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM holdings WHERE user_id='buyer-1'`))
}

func TestUndoPurchaseNothingToUndo(t *testing.T) {
	db := memdb(t)

	_, err := newUndo(db).UndoPurchase("buyer-1", "asset-a")
	assert.ErrorIs(t, err, services.ErrNothingToUndo)
}

func TestUndoPurchaseTwiceUndoesBothThenStops(t *testing.T) {
	db := memdb(t)
	buyAsset(t, db, "buyer-1", "asset-a", 40)
	buyAsset(t, db, "buyer-1", "asset-a", 42)

	svc := newUndo(db)

	res, err := svc.UndoPurchase("buyer-1", "asset-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.HoldingsGone)
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM holdings WHERE asset_id='asset-a'`))

	res, err = svc.UndoPurchase("buyer-1", "asset-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.HoldingsGone)

	_, err = svc.UndoPurchase("buyer-1", "asset-a")
	assert.ErrorIs(t, err, services.ErrNothingToUndo)
	assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM purchase_txns WHERE asset_id='asset-a'`))
}
