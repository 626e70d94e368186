package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SaleFacts is the anonymized record appended to the global price-history
// ledger after a checkout commits. No buyer or seller identity leaves the
// system; the ledger deduplicates on its side.
type SaleFacts struct {
	AssetID   string  `json:"assetId"`
	SeriesKey string  `json:"seriesKey"`
	Grade     string  `json:"grade"`
	Price     float64 `json:"price"`
	SoldAt    string  `json:"soldAt"`
}

// SaleWriter appends to the external sale-history ledger. Best-effort: a
// failed append is logged by the dispatcher and never retried into the
// owning transaction.
type SaleWriter interface {
	Append(ctx context.Context, facts SaleFacts) error
}

// HTTPSaleWriter posts sale facts to a remote ledger service.
type HTTPSaleWriter struct {
	URL    string
	Client *http.Client
}

func NewHTTPSaleWriter(url string) *HTTPSaleWriter {
	return &HTTPSaleWriter{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (w *HTTPSaleWriter) Append(ctx context.Context, facts SaleFacts) error {
	body, err := json.Marshal(facts)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// The ledger answers 200 for accepted and 409 for a duplicate it already
	// holds; both mean the facts are recorded.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("sale ledger: status %d", resp.StatusCode)
	}
	return nil
}

// NopSaleWriter is used when no ledger is configured.
type NopSaleWriter struct{}

func (NopSaleWriter) Append(context.Context, SaleFacts) error { return nil }
