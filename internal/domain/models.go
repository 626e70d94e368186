package domain

// Asset is a canonical catalog record for one graded collectible. The core
// never creates or destroys these; they are read-only inputs resolved by id.
type Asset struct {
	ID         string `db:"id" json:"id"`
	Title      string `db:"title" json:"title"`
	Grade      string `db:"grade" json:"grade"`
	CertNumber string `db:"cert_number" json:"certNumber"`
	ImageRef   string `db:"image_ref" json:"imageRef,omitempty"`
	SeriesKey  string `db:"series_key" json:"seriesKey,omitempty"`
}

// Display is the human string used on receipts and undo confirmations.
func (a Asset) Display() string {
	if a.Grade == "" {
		return a.Title
	}
	return a.Title + " (" + a.Grade + ")"
}

// BuySession is one buying-desk negotiation. Status moves open -> closed and
// only a successful checkout closes it.
type BuySession struct {
	ID         string `db:"id" json:"id"`
	UserID     string `db:"user_id" json:"userId"`
	SeqNumber  string `db:"seq_number" json:"seqNumber"`
	Status     string `db:"status" json:"status"` // open | closed
	EventRef   string `db:"event_ref" json:"eventRef,omitempty"`
	SellerName string `db:"seller_name" json:"sellerName,omitempty"`
	CreatedAt  string `db:"created_at" json:"createdAt"`
	UpdatedAt  string `db:"updated_at" json:"updatedAt,omitempty"`
}

const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// CartLine is one pending purchase inside a session: an asset plus the
// price negotiated for it.
type CartLine struct {
	ID         string  `db:"id" json:"id"`
	SessionID  string  `db:"session_id" json:"sessionId"`
	AssetID    string  `db:"asset_id" json:"assetId"`
	OfferPrice float64 `db:"offer_price" json:"offerPrice"`
	Note       string  `db:"note" json:"note,omitempty"`
	CreatedAt  string  `db:"created_at" json:"createdAt"`
}

// Holding records a user's possession of one asset unit.
type Holding struct {
	ID            string  `db:"id" json:"id"`
	UserID        string  `db:"user_id" json:"userId"`
	AssetID       string  `db:"asset_id" json:"assetId"`
	PurchasePrice float64 `db:"purchase_price" json:"purchasePrice"`
	AcquiredOn    string  `db:"acquired_on" json:"acquiredOn"`
	Source        string  `db:"source" json:"source"`
	SessionID     string  `db:"session_id" json:"sessionId,omitempty"`
	MarketValue   float64 `db:"market_value" json:"marketValue"`
	Active        bool    `db:"active" json:"active"`
}

// SourceBuyingDesk tags holdings created by checkout; undo only reverses
// holdings carrying this tag.
const SourceBuyingDesk = "buying_desk"

// PurchaseTxn is the financial audit entry for one acquired asset. It keeps a
// reference to the holding it accompanies so an undo can remove both together.
type PurchaseTxn struct {
	ID            string  `db:"id" json:"id"`
	UserID        string  `db:"user_id" json:"userId"`
	ContainerID   string  `db:"container_id" json:"containerId"`
	SessionID     string  `db:"session_id" json:"sessionId"`
	HoldingID     string  `db:"holding_id" json:"holdingId"`
	AssetID       string  `db:"asset_id" json:"assetId"`
	Price         float64 `db:"price" json:"price"`
	PaymentMethod string  `db:"payment_method" json:"paymentMethod"`
	Counterparty  string  `db:"counterparty" json:"counterparty"`
	MarketValue   float64 `db:"market_value" json:"marketValue"`
	Note          string  `db:"note" json:"note,omitempty"`
	CreatedAt     string  `db:"created_at" json:"createdAt"`
}

// ConsignmentAsset is an asset listed for resale on behalf of a consignor,
// with mutable commercial terms.
type ConsignmentAsset struct {
	ID           string  `db:"id" json:"id"`
	ContainerID  string  `db:"container_id" json:"containerId"`
	Title        string  `db:"title" json:"title"`
	Grade        string  `db:"grade" json:"grade,omitempty"`
	CertNumber   string  `db:"cert_number" json:"certNumber,omitempty"`
	Price        float64 `db:"price" json:"price"`
	Reserve      float64 `db:"reserve" json:"reserve"`
	SplitPercent float64 `db:"split_percent" json:"splitPercent"`
	Status       string  `db:"status" json:"status"`
	ListedAt     string  `db:"listed_at" json:"listedAt,omitempty"`
	CreatedAt    string  `db:"created_at" json:"createdAt"`
	UpdatedAt    string  `db:"updated_at" json:"updatedAt,omitempty"`
}

// Consignment asset lifecycle states.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusOnHold   = "on_hold"
	StatusSold     = "sold"
	StatusReturned = "returned"
)
