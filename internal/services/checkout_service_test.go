package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"gradedesk/internal/domain"
	"gradedesk/internal/pricing"
	"gradedesk/internal/repos"
	"gradedesk/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// one connection so every statement sees the same in-memory database
	db.SetMaxOpenConns(1)
	require.NoError(t, repos.EnsureSchema(db))

	db.MustExec(`INSERT INTO assets(id,title,grade,cert_number,series_key) VALUES
	  ('asset-a','1999 Charizard Holo #4','PSA 9','45120881','pokemon-base-charizard'),
	  ('asset-b','1999 Blastoise Holo #2','PSA 8','45120902','pokemon-base-blastoise'),
	  ('asset-c','Spawn #1 (1992)','CGC 9.8','3972110005','image-spawn-1')`)
	return db
}

func count(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, query, args...))
	return n
}

func openSessionWith(t *testing.T, db *sqlx.DB, userID string, lines map[string]float64, order []string) (domain.BuySession, *repos.SessionRepo) {
	t.Helper()
	sessions := repos.NewSessionRepo(db)
	sess, err := sessions.Create(userID, "", "Walk-in Seller")
	require.NoError(t, err)
	for _, assetID := range order {
		_, err := sessions.AddLine(sess.ID, assetID, lines[assetID], "")
		require.NoError(t, err)
	}
	return sess, sessions
}

func newCheckout(db *sqlx.DB) *services.CheckoutService {
	oracle := &pricing.StaticOracle{Quotes: map[string]pricing.Quote{
		"asset-a": {Value: 52.50, Confidence: 0.9, SalesCount: 14},
		"asset-b": {Value: 31.00, Confidence: 0.8, SalesCount: 6},
	}}
	return services.NewCheckoutService(db, repos.NewSessionRepo(db), oracle)
}

func TestFinalizeHappyPath(t *testing.T) {
	db := memdb(t)
	sess, sessions := openSessionWith(t, db, "buyer-1",
		map[string]float64{"asset-a": 40, "asset-b": 60}, []string{"asset-a", "asset-b"})

	receipt, err := newCheckout(db).Finalize(context.Background(), "buyer-1", sess.ID, services.FinalizeRequest{
		PaymentMethod: "cash", AmountPaid: 100, BuyerName: "Dana",
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, receipt.Total)
	assert.Equal(t, 2, receipt.HoldingsCreated)
	assert.Equal(t, 2, receipt.TxnsCreated)
	assert.Equal(t, sess.SeqNumber, receipt.SeqNumber)
	assert.Equal(t, []string{"1999 Charizard Holo #4 (PSA 9)", "1999 Blastoise Holo #2 (PSA 8)"}, receipt.Assets)

	// cart cleared, session closed
	lines, err := sessions.Lines(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	closed, err := sessions.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionClosed, closed.Status)

	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM holdings WHERE user_id='buyer-1' AND active=1`))
	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM purchase_txns WHERE session_id=?`, sess.ID))

	// market value captured from the oracle on the holding
	var mv float64
	require.NoError(t, db.Get(&mv, `SELECT market_value FROM holdings WHERE asset_id='asset-a'`))
	assert.Equal(t, 52.50, mv)

	// one sale-history and one refresh task per line, queued with the commit
	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM outbox WHERE kind=? AND sent_at IS NULL`, repos.TaskSaleHistory))
	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM outbox WHERE kind=? AND sent_at IS NULL`, repos.TaskPriceRefresh))
}

func TestFinalizeIsIdempotent(t *testing.T) {
	db := memdb(t)
	sess, _ := openSessionWith(t, db, "buyer-1",
		map[string]float64{"asset-a": 40, "asset-b": 60}, []string{"asset-a", "asset-b"})

	svc := newCheckout(db)
	req := services.FinalizeRequest{PaymentMethod: "cash", AmountPaid: 100, BuyerName: "Dana"}

	_, err := svc.Finalize(context.Background(), "buyer-1", sess.ID, req)
	require.NoError(t, err)

	_, err = svc.Finalize(context.Background(), "buyer-1", sess.ID, req)
	assert.ErrorIs(t, err, services.ErrAlreadyProcessed)

	// the retry created nothing
	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM holdings`))
	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM purchase_txns`))
}

func TestFinalizePaymentGate(t *testing.T) {
	db := memdb(t)
	sess, sessions := openSessionWith(t, db, "buyer-1",
		map[string]float64{"asset-a": 50}, []string{"asset-a"})

	_, err := newCheckout(db).Finalize(context.Background(), "buyer-1", sess.ID, services.FinalizeRequest{
		PaymentMethod: "cash", AmountPaid: 40, BuyerName: "Dana",
	})

	var payErr *services.InsufficientPaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, 50.0, payErr.Required)
	assert.Equal(t, 40.0, payErr.Provided)

	// session untouched: still open, line still there
	s, err := sessions.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionOpen, s.Status)
	lines, err := sessions.Lines(sess.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM holdings`))
	assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM purchase_txns`))
}

func TestFinalizeEmptyCart(t *testing.T) {
	db := memdb(t)
	sess, _ := openSessionWith(t, db, "buyer-1", nil, nil)

	_, err := newCheckout(db).Finalize(context.Background(), "buyer-1", sess.ID, services.FinalizeRequest{
		PaymentMethod: "cash", AmountPaid: 100, BuyerName: "Dana",
	})
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestFinalizeUnknownOrForeignSession(t *testing.T) {
	db := memdb(t)
	sess, _ := openSessionWith(t, db, "buyer-1",
		map[string]float64{"asset-a": 10}, []string{"asset-a"})

	svc := newCheckout(db)
	req := services.FinalizeRequest{PaymentMethod: "cash", AmountPaid: 100, BuyerName: "Dana"}

	_, err := svc.Finalize(context.Background(), "buyer-1", "no-such-session", req)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)

	// someone else's session looks like a missing one
	_, err = svc.Finalize(context.Background(), "buyer-2", sess.ID, req)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestFinalizeAtomicRollback(t *testing.T) {
	db := memdb(t)
	// second line references an asset that does not exist in the catalog
	sess, sessions := openSessionWith(t, db, "buyer-1",
		map[string]float64{"asset-a": 40, "ghost-asset": 60}, []string{"asset-a", "ghost-asset"})

	_, err := newCheckout(db).Finalize(context.Background(), "buyer-1", sess.ID, services.FinalizeRequest{
		PaymentMethod: "cash", AmountPaid: 100, BuyerName: "Dana",
	})
	assert.ErrorIs(t, err, services.ErrAssetNotFound)

	// nothing from line one survived the rollback
	assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM holdings`))
	assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM purchase_txns`))
	assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM outbox`))
	assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM txn_containers`))

	s, err := sessions.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionOpen, s.Status)
	lines, err := sessions.Lines(sess.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestFinalizeConservation(t *testing.T) {
	db := memdb(t)
	prices := map[string]float64{"asset-a": 12.34, "asset-b": 56.78, "asset-c": 9.99}
	sess, _ := openSessionWith(t, db, "buyer-1", prices, []string{"asset-a", "asset-b", "asset-c"})

	_, err := newCheckout(db).Finalize(context.Background(), "buyer-1", sess.ID, services.FinalizeRequest{
		PaymentMethod: "check", AmountPaid: 100, BuyerName: "Dana",
	})
	require.NoError(t, err)

	var sum float64
	require.NoError(t, db.Get(&sum, `SELECT SUM(price) FROM purchase_txns WHERE session_id=?`, sess.ID))
	assert.InDelta(t, 12.34+56.78+9.99, sum, 1e-9)
}

func TestFinalizeReusesContainer(t *testing.T) {
	db := memdb(t)
	svc := newCheckout(db)
	req := services.FinalizeRequest{PaymentMethod: "cash", AmountPaid: 100, BuyerName: "Dana"}

	s1, _ := openSessionWith(t, db, "buyer-1", map[string]float64{"asset-a": 10}, []string{"asset-a"})
	_, err := svc.Finalize(context.Background(), "buyer-1", s1.ID, req)
	require.NoError(t, err)

	s2, _ := openSessionWith(t, db, "buyer-1", map[string]float64{"asset-b": 20}, []string{"asset-b"})
	_, err = svc.Finalize(context.Background(), "buyer-1", s2.ID, req)
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM txn_containers WHERE user_id='buyer-1'`))
}

func TestFinalizeMarketLookupIsAdvisory(t *testing.T) {
	db := memdb(t)
	sess, _ := openSessionWith(t, db, "buyer-1",
		map[string]float64{"asset-c": 25}, []string{"asset-c"})

	// oracle has no quote for asset-c; checkout proceeds with value 0
	svc := services.NewCheckoutService(db, repos.NewSessionRepo(db), &pricing.StaticOracle{})
	receipt, err := svc.Finalize(context.Background(), "buyer-1", sess.ID, services.FinalizeRequest{
		PaymentMethod: "trade", AmountPaid: 25, BuyerName: "Dana",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.HoldingsCreated)

	var mv float64
	require.NoError(t, db.Get(&mv, `SELECT market_value FROM holdings WHERE asset_id='asset-c'`))
	assert.Equal(t, 0.0, mv)
}
