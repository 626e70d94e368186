package repos

import (
	"database/sql"

	"gradedesk/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// InternalContainerName is the deterministic name of the per-user container
// that buying-desk purchases land in. Looking containers up by this name is
// what keeps repeated checkouts from creating one container per session.
const InternalContainerName = "Internal Transactions"

// TxnRepo reads the purchase audit trail and owns the container
// find-or-create step.
type TxnRepo struct{ db *sqlx.DB }

func NewTxnRepo(db *sqlx.DB) *TxnRepo { return &TxnRepo{db: db} }

// EnsureContainerTx resolves the user's internal-transactions container,
// creating it on first use. Two concurrent checkouts can race here; the
// insert tolerates the duplicate-key conflict and falls back to re-querying,
// so both land on the same row.
func EnsureContainerTx(tx *sqlx.Tx, userID string) (string, error) {
	var id string
	err := tx.Get(&id, `SELECT id FROM txn_containers WHERE user_id = ? AND name = ?`,
		userID, InternalContainerName)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	id = uuid.NewString()
	if _, err := tx.Exec(`
	  INSERT INTO txn_containers(id, user_id, name)
	  VALUES(?,?,?)
	  ON CONFLICT(user_id, name) DO NOTHING
	`, id, userID, InternalContainerName); err != nil {
		return "", err
	}
	// Re-query: the conflict path means another writer won the insert.
	if err := tx.Get(&id, `SELECT id FROM txn_containers WHERE user_id = ? AND name = ?`,
		userID, InternalContainerName); err != nil {
		return "", err
	}
	return id, nil
}

func (r *TxnRepo) ListBySession(sessionID string) ([]domain.PurchaseTxn, error) {
	var out []domain.PurchaseTxn
	err := r.db.Select(&out, `
	  SELECT id, user_id, container_id, session_id, holding_id, asset_id,
	         price, payment_method, counterparty, market_value, note, created_at
	  FROM purchase_txns
	  WHERE session_id = ?
	  ORDER BY created_at, id
	`, sessionID)
	return out, err
}

func (r *TxnRepo) ListByUser(userID string, limit int) ([]domain.PurchaseTxn, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.PurchaseTxn
	err := r.db.Select(&out, `
	  SELECT id, user_id, container_id, session_id, holding_id, asset_id,
	         price, payment_method, counterparty, market_value, note, created_at
	  FROM purchase_txns
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?
	`, userID, limit)
	return out, err
}
