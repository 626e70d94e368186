package repos

import (
	"database/sql"
	"strings"
	"time"

	"gradedesk/internal/domain"

	"github.com/jmoiron/sqlx"
)

// ConsignmentRepo mutates consignment inventory. Bulk operations go through
// the single-row methods so each item keeps its own failure.
type ConsignmentRepo struct{ db *sqlx.DB }

func NewConsignmentRepo(db *sqlx.DB) *ConsignmentRepo { return &ConsignmentRepo{db: db} }

func (r *ConsignmentRepo) Get(containerID, assetID string) (domain.ConsignmentAsset, error) {
	var a domain.ConsignmentAsset
	err := r.db.Get(&a, `
	  SELECT id, container_id, title, grade, cert_number, price, reserve,
	         split_percent, status, COALESCE(listed_at,'') AS listed_at,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM consignment_assets
	  WHERE id = ? AND container_id = ?
	`, assetID, containerID)
	return a, err
}

func (r *ConsignmentRepo) Insert(a domain.ConsignmentAsset) error {
	_, err := r.db.Exec(`
	  INSERT INTO consignment_assets
	    (id, container_id, title, grade, cert_number, price, reserve, split_percent, status, listed_at, created_at)
	  VALUES(?,?,?,?,?,?,?,?,?,NULLIF(?,''),CURRENT_TIMESTAMP)
	`, a.ID, a.ContainerID, a.Title, a.Grade, a.CertNumber, a.Price, a.Reserve, a.SplitPercent, a.Status, a.ListedAt)
	return err
}

// FieldPatch carries the optional field changes of one bulk update. Nil means
// "leave the column alone".
type FieldPatch struct {
	Price        *float64
	Reserve      *float64
	SplitPercent *float64
	Status       *string
}

// UpdateFields applies a patch to one consignment asset. A status change to
// active stamps listed_at regardless of what else the patch carries.
// Returns sql.ErrNoRows when the asset is not in the container.
func (r *ConsignmentRepo) UpdateFields(containerID, assetID string, p FieldPatch) error {
	set := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}
	if p.Price != nil {
		set = append(set, "price = ?")
		args = append(args, *p.Price)
	}
	if p.Reserve != nil {
		set = append(set, "reserve = ?")
		args = append(args, *p.Reserve)
	}
	if p.SplitPercent != nil {
		set = append(set, "split_percent = ?")
		args = append(args, *p.SplitPercent)
	}
	if p.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *p.Status)
		if *p.Status == domain.StatusActive {
			set = append(set, "listed_at = COALESCE(listed_at, ?)")
			args = append(args, time.Now().UTC().Format(time.RFC3339))
		}
	}
	args = append(args, assetID, containerID)

	res, err := r.db.Exec(`
	  UPDATE consignment_assets SET `+strings.Join(set, ", ")+`
	  WHERE id = ? AND container_id = ?
	`, args...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes one consignment asset. Returns sql.ErrNoRows when absent.
func (r *ConsignmentRepo) Delete(containerID, assetID string) error {
	res, err := r.db.Exec(`DELETE FROM consignment_assets WHERE id = ? AND container_id = ?`, assetID, containerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePriceBatch sets one price across many assets in a single statement.
// The batch add path groups assets by identical derived price and calls this
// once per group.
func (r *ConsignmentRepo) UpdatePriceBatch(containerID string, assetIDs []string, price float64) error {
	if len(assetIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
	  UPDATE consignment_assets SET price = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE container_id = ? AND id IN (?)
	`, price, containerID, assetIDs)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(query, args...)
	return err
}

func (r *ConsignmentRepo) ListByContainer(containerID string) ([]domain.ConsignmentAsset, error) {
	var out []domain.ConsignmentAsset
	err := r.db.Select(&out, `
	  SELECT id, container_id, title, grade, cert_number, price, reserve,
	         split_percent, status, COALESCE(listed_at,'') AS listed_at,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM consignment_assets
	  WHERE container_id = ?
	  ORDER BY created_at, id
	`, containerID)
	return out, err
}
