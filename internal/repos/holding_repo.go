package repos

import (
	"gradedesk/internal/domain"

	"github.com/jmoiron/sqlx"
)

// HoldingRepo reads ownership records. Writes happen inside the checkout and
// undo transactions, not through this repo.
type HoldingRepo struct{ db *sqlx.DB }

func NewHoldingRepo(db *sqlx.DB) *HoldingRepo { return &HoldingRepo{db: db} }

// ActiveBySource finds the buyer's active holding for an asset carrying the
// given acquisition source tag. Undo is constrained to buying-desk holdings
// so it never touches consigned or otherwise-sourced records.
func (r *HoldingRepo) ActiveBySource(userID, assetID, source string) (domain.Holding, error) {
	var h domain.Holding
	err := r.db.Get(&h, `
	  SELECT id, user_id, asset_id, purchase_price, acquired_on, source,
	         session_id, market_value, active
	  FROM holdings
	  WHERE user_id = ? AND asset_id = ? AND source = ? AND active = 1
	  ORDER BY acquired_on DESC
	  LIMIT 1
	`, userID, assetID, source)
	return h, err
}

func (r *HoldingRepo) ListByUser(userID string) ([]domain.Holding, error) {
	var out []domain.Holding
	err := r.db.Select(&out, `
	  SELECT id, user_id, asset_id, purchase_price, acquired_on, source,
	         session_id, market_value, active
	  FROM holdings
	  WHERE user_id = ? AND active = 1
	  ORDER BY acquired_on DESC
	`, userID)
	return out, err
}
