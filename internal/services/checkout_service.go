package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gradedesk/internal/domain"
	applog "gradedesk/internal/log"
	"gradedesk/internal/pricing"
	"gradedesk/internal/repos"
	"gradedesk/internal/tasks"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CheckoutService turns a session's negotiated cart into permanent ownership
// and audit records, exactly once.
type CheckoutService struct {
	DB       *sqlx.DB
	Sessions *repos.SessionRepo
	Oracle   pricing.Oracle
}

func NewCheckoutService(db *sqlx.DB, sessions *repos.SessionRepo, oracle pricing.Oracle) *CheckoutService {
	return &CheckoutService{DB: db, Sessions: sessions, Oracle: oracle}
}

type FinalizeRequest struct {
	PaymentMethod string  `json:"paymentMethod"`
	AmountPaid    float64 `json:"amountPaid"`
	BuyerName     string  `json:"buyerName"`
	Notes         string  `json:"notes"`
}

// Receipt summarizes one completed checkout.
type Receipt struct {
	SessionID       string   `json:"sessionId"`
	SeqNumber       string   `json:"seqNumber"`
	Total           float64  `json:"total"`
	AmountPaid      float64  `json:"amountPaid"`
	PaymentMethod   string   `json:"paymentMethod"`
	BuyerName       string   `json:"buyerName"`
	HoldingsCreated int      `json:"holdingsCreated"`
	TxnsCreated     int      `json:"txnsCreated"`
	Assets          []string `json:"assets"`
	CheckedOutAt    string   `json:"checkedOutAt"`
}

// Finalize validates the session and payment, then applies the whole checkout
// in one database transaction: per cart line one holding and one purchase
// transaction, then clear the cart and close the session. Outbox rows for the
// sale-history ledger and the price-refresh job are written in the same
// transaction and delivered after commit by the dispatcher.
//
// A closed session is rejected with ErrAlreadyProcessed, which makes a
// client retry after a timeout deterministic instead of a duplicate purchase.
func (s *CheckoutService) Finalize(ctx context.Context, userID, sessionID string, req FinalizeRequest) (Receipt, error) {
	sess, err := s.Sessions.Get(sessionID)
	if err == sql.ErrNoRows {
		return Receipt{}, ErrSessionNotFound
	}
	if err != nil {
		return Receipt{}, err
	}
	// Sessions belong to the user who opened them; another user's session is
	// indistinguishable from a missing one.
	if sess.UserID != userID {
		return Receipt{}, ErrSessionNotFound
	}
	if sess.Status == domain.SessionClosed {
		return Receipt{}, ErrAlreadyProcessed
	}

	lines, err := s.Sessions.Lines(sessionID)
	if err != nil {
		return Receipt{}, err
	}
	if len(lines) == 0 {
		return Receipt{}, ErrEmptyCart
	}

	total := 0.0
	for _, l := range lines {
		total += l.OfferPrice
	}
	if total > req.AmountPaid {
		return Receipt{}, &InsufficientPaymentError{Required: total, Provided: req.AmountPaid}
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return Receipt{}, err
	}
	defer func() { _ = tx.Rollback() }()

	containerID, err := repos.EnsureContainerTx(tx, userID)
	if err != nil {
		return Receipt{}, err
	}

	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	displays := make([]string, 0, len(lines))

	for _, line := range lines {
		asset, err := repos.GetAssetTx(tx, line.AssetID)
		if err == sql.ErrNoRows {
			// A cart line pointing at a missing asset is a data-integrity
			// fault upstream; abort everything.
			return Receipt{}, fmt.Errorf("%w: %s", ErrAssetNotFound, line.AssetID)
		}
		if err != nil {
			return Receipt{}, err
		}

		marketValue := 0.0
		if s.Oracle != nil {
			if q, err := s.Oracle.MarketValue(ctx, line.AssetID); err != nil {
				applog.Advisory(nil, "checkout.market.lookup", err, map[string]any{"asset_id": line.AssetID})
			} else {
				marketValue = q.Value
			}
		}

		holdingID := uuid.NewString()
		if _, err := tx.Exec(`
		  INSERT INTO holdings
		    (id, user_id, asset_id, purchase_price, acquired_on, source, session_id, market_value, active)
		  VALUES(?,?,?,?,?,?,?,?,1)
		`, holdingID, userID, line.AssetID, line.OfferPrice, today,
			domain.SourceBuyingDesk, sessionID, marketValue); err != nil {
			return Receipt{}, err
		}

		if _, err := tx.Exec(`
		  INSERT INTO purchase_txns
		    (id, user_id, container_id, session_id, holding_id, asset_id,
		     price, payment_method, counterparty, market_value, note, created_at)
		  VALUES(?,?,?,?,?,?,?,?,?,?,?,?)
		`, uuid.NewString(), userID, containerID, sessionID, holdingID, line.AssetID,
			line.OfferPrice, req.PaymentMethod, req.BuyerName, marketValue, req.Notes,
			now.Format(time.RFC3339Nano)); err != nil {
			return Receipt{}, err
		}

		displays = append(displays, asset.Display())

		if err := repos.EnqueueTx(tx, repos.TaskSaleHistory, tasks.SaleFacts{
			AssetID:   line.AssetID,
			SeriesKey: asset.SeriesKey,
			Grade:     asset.Grade,
			Price:     line.OfferPrice,
			SoldAt:    today,
		}); err != nil {
			return Receipt{}, err
		}
		if err := repos.EnqueueTx(tx, repos.TaskPriceRefresh, tasks.RefreshJob{AssetID: line.AssetID}); err != nil {
			return Receipt{}, err
		}
	}

	// Clear the cart and close the session last, inside the same transaction:
	// no reader can see a closed session with lines still attached, or new
	// holdings against an open one.
	if _, err := tx.Exec(`DELETE FROM buy_session_lines WHERE session_id = ?`, sessionID); err != nil {
		return Receipt{}, err
	}
	if _, err := tx.Exec(`
	  UPDATE buy_sessions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, domain.SessionClosed, sessionID); err != nil {
		return Receipt{}, err
	}

	if err := tx.Commit(); err != nil {
		return Receipt{}, err
	}

	return Receipt{
		SessionID:       sessionID,
		SeqNumber:       sess.SeqNumber,
		Total:           total,
		AmountPaid:      req.AmountPaid,
		PaymentMethod:   req.PaymentMethod,
		BuyerName:       req.BuyerName,
		HoldingsCreated: len(lines),
		TxnsCreated:     len(lines),
		Assets:          displays,
		CheckedOutAt:    now.Format(time.RFC3339),
	}, nil
}
