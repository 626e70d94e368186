package handlers

import (
	"gradedesk/internal/pricing"
	"gradedesk/internal/repos"
	"gradedesk/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	SessionHandler  *SessionHandler
	CheckoutHandler *CheckoutHandler
	UndoHandler     *UndoHandler
	BulkHandler     *BulkHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, oracle pricing.Oracle) *Deps {
	sessionRepo := repos.NewSessionRepo(db)
	assetRepo := repos.NewAssetRepo(db)
	holdingRepo := repos.NewHoldingRepo(db)
	consignRepo := repos.NewConsignmentRepo(db)
	txnRepo := repos.NewTxnRepo(db)

	sessionSvc := services.NewSessionService(sessionRepo, assetRepo)
	checkoutSvc := services.NewCheckoutService(db, sessionRepo, oracle)
	undoSvc := services.NewUndoService(db, holdingRepo, assetRepo)
	bulkSvc := services.NewBulkService(consignRepo)
	consignSvc := services.NewConsignService(consignRepo, oracle)

	return &Deps{
		SessionHandler:  &SessionHandler{Sessions: sessionSvc},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc},
		UndoHandler:     &UndoHandler{Undo: undoSvc},
		BulkHandler:     &BulkHandler{Bulk: bulkSvc, Consign: consignSvc},
		AdminHandler:    &AdminHandler{Txns: txnRepo, HoldingsRepo: holdingRepo, Outbox: repos.NewOutboxRepo(db)},
	}
}
