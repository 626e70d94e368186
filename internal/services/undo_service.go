package services

import (
	"database/sql"
	"time"

	"gradedesk/internal/domain"
	"gradedesk/internal/repos"

	"github.com/jmoiron/sqlx"
)

// UndoService reverses one completed purchase: the holding and the purchase
// transactions that reference it are removed together, restoring the
// pre-purchase state for that single acquisition.
type UndoService struct {
	DB       *sqlx.DB
	Holdings *repos.HoldingRepo
	Assets   *repos.AssetRepo
}

func NewUndoService(db *sqlx.DB, holdings *repos.HoldingRepo, assets *repos.AssetRepo) *UndoService {
	return &UndoService{DB: db, Holdings: holdings, Assets: assets}
}

type UndoResult struct {
	AssetID       string       `json:"assetId"`
	Asset         domain.Asset `json:"asset"`
	PurchasePrice float64      `json:"purchasePrice"`
	HoldingsGone  int64        `json:"ownershipRecordsRemoved"`
	TxnsGone      int64        `json:"transactionRecordsRemoved"`
	Timestamp     string       `json:"timestamp"`
}

// UndoPurchase removes the buyer's most recent buying-desk holding for the
// asset and the purchase transactions pinned to that holding id. The narrow
// match on holding id keeps other acquisitions of the same asset, and other
// buyers' records, untouched.
func (s *UndoService) UndoPurchase(userID, assetID string) (UndoResult, error) {
	h, err := s.Holdings.ActiveBySource(userID, assetID, domain.SourceBuyingDesk)
	if err == sql.ErrNoRows {
		return UndoResult{}, ErrNothingToUndo
	}
	if err != nil {
		return UndoResult{}, err
	}

	asset, err := s.Assets.Get(assetID)
	if err != nil && err != sql.ErrNoRows {
		return UndoResult{}, err
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return UndoResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
	  DELETE FROM purchase_txns
	  WHERE user_id = ? AND asset_id = ? AND holding_id = ?
	`, userID, assetID, h.ID)
	if err != nil {
		return UndoResult{}, err
	}
	txnsGone, _ := res.RowsAffected()

	res, err = tx.Exec(`DELETE FROM holdings WHERE id = ?`, h.ID)
	if err != nil {
		return UndoResult{}, err
	}
	holdingsGone, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return UndoResult{}, err
	}

	return UndoResult{
		AssetID:       assetID,
		Asset:         asset,
		PurchasePrice: h.PurchasePrice,
		HoldingsGone:  holdingsGone,
		TxnsGone:      txnsGone,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}
