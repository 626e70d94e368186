package repos

import (
	"gradedesk/internal/domain"

	"github.com/jmoiron/sqlx"
)

// AssetRepo reads the canonical asset catalog. The checkout core never writes
// to it.
type AssetRepo struct{ db *sqlx.DB }

func NewAssetRepo(db *sqlx.DB) *AssetRepo { return &AssetRepo{db: db} }

func (r *AssetRepo) Get(id string) (domain.Asset, error) {
	var a domain.Asset
	err := r.db.Get(&a, `
	  SELECT id, title, grade, cert_number, image_ref, series_key
	  FROM assets
	  WHERE id = ?
	`, id)
	return a, err
}

// GetAssetTx is the transaction-scoped variant used inside checkout.
func GetAssetTx(tx *sqlx.Tx, id string) (domain.Asset, error) {
	var a domain.Asset
	err := tx.Get(&a, `
	  SELECT id, title, grade, cert_number, image_ref, series_key
	  FROM assets
	  WHERE id = ?
	`, id)
	return a, err
}
