package repos

import (
	"fmt"
	"time"

	"gradedesk/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SessionRepo manages buying-desk negotiation sessions and their cart lines.
type SessionRepo struct{ db *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create opens a new session with the next human-readable sequence number.
func (r *SessionRepo) Create(userID, eventRef, sellerName string) (domain.BuySession, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM buy_sessions`); err != nil {
		return domain.BuySession{}, err
	}
	s := domain.BuySession{
		ID:         uuid.NewString(),
		UserID:     userID,
		SeqNumber:  fmt.Sprintf("BD-%04d", n+1),
		Status:     domain.SessionOpen,
		EventRef:   eventRef,
		SellerName: sellerName,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	_, err := r.db.Exec(`
	  INSERT INTO buy_sessions(id, user_id, seq_number, status, event_ref, seller_name, created_at)
	  VALUES(?,?,?,?,?,?,?)
	`, s.ID, s.UserID, s.SeqNumber, s.Status, s.EventRef, s.SellerName, s.CreatedAt)
	if err != nil {
		return domain.BuySession{}, err
	}
	return s, nil
}

func (r *SessionRepo) Get(id string) (domain.BuySession, error) {
	var s domain.BuySession
	err := r.db.Get(&s, `
	  SELECT id, user_id, seq_number, status, event_ref, seller_name,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM buy_sessions
	  WHERE id = ?
	`, id)
	return s, err
}

// Lines returns the session's cart lines in stored order; that order defines
// the checkout's unit of work.
func (r *SessionRepo) Lines(sessionID string) ([]domain.CartLine, error) {
	var out []domain.CartLine
	err := r.db.Select(&out, `
	  SELECT id, session_id, asset_id, offer_price, note, created_at
	  FROM buy_session_lines
	  WHERE session_id = ?
	  ORDER BY created_at, id
	`, sessionID)
	return out, err
}

func (r *SessionRepo) AddLine(sessionID, assetID string, offerPrice float64, note string) (domain.CartLine, error) {
	l := domain.CartLine{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		AssetID:    assetID,
		OfferPrice: offerPrice,
		Note:       note,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	_, err := r.db.Exec(`
	  INSERT INTO buy_session_lines(id, session_id, asset_id, offer_price, note, created_at)
	  VALUES(?,?,?,?,?,?)
	`, l.ID, l.SessionID, l.AssetID, l.OfferPrice, l.Note, l.CreatedAt)
	if err != nil {
		return domain.CartLine{}, err
	}
	return l, nil
}

func (r *SessionRepo) RemoveLine(sessionID, lineID string) error {
	res, err := r.db.Exec(`DELETE FROM buy_session_lines WHERE id = ? AND session_id = ?`, lineID, sessionID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("line %s not found in session %s", lineID, sessionID)
	}
	return nil
}
