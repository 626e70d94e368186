package repos

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
)

// Outbox task kinds.
const (
	TaskSaleHistory  = "sale.history"
	TaskPriceRefresh = "price.refresh"
)

// OutboxRecord is one queued fire-and-forget task. Rows are written inside
// the checkout transaction and delivered by the dispatcher after commit, so
// the core never blocks on a collaborator.
type OutboxRecord struct {
	ID        int64           `db:"id"`
	Kind      string          `db:"kind"`
	Payload   json.RawMessage `db:"payload"`
	CreatedAt string          `db:"created_at"`
	SentAt    *string         `db:"sent_at"`
}

type OutboxRepo struct{ db *sqlx.DB }

func NewOutboxRepo(db *sqlx.DB) *OutboxRepo { return &OutboxRepo{db: db} }

// EnqueueTx queues a task inside the caller's transaction.
func EnqueueTx(tx *sqlx.Tx, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO outbox(kind, payload) VALUES(?, ?)`, kind, string(data))
	return err
}

func (r *OutboxRepo) FetchPending(limit int) ([]OutboxRecord, error) {
	var out []OutboxRecord
	err := r.db.Select(&out, `
	  SELECT id, kind, payload, created_at, sent_at
	  FROM outbox
	  WHERE sent_at IS NULL
	  ORDER BY id
	  LIMIT ?
	`, limit)
	return out, err
}

// PendingCount reports the dispatcher backlog.
func (r *OutboxRepo) PendingCount() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM outbox WHERE sent_at IS NULL`)
	return n, err
}

func (r *OutboxRepo) MarkSent(id int64) error {
	_, err := r.db.Exec(`UPDATE outbox SET sent_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	return err
}
