package services

import (
	"context"

	"gradedesk/internal/domain"
	applog "gradedesk/internal/log"
	"gradedesk/internal/pricing"
	"gradedesk/internal/repos"

	"github.com/google/uuid"
)

// ConsignService handles the add path for consignment assets, single or
// batch, deriving list and reserve prices from market value with the same
// pure helpers in both cases.
type ConsignService struct {
	Consignments *repos.ConsignmentRepo
	Oracle       pricing.Oracle
}

func NewConsignService(consignments *repos.ConsignmentRepo, oracle pricing.Oracle) *ConsignService {
	return &ConsignService{Consignments: consignments, Oracle: oracle}
}

// AssetSpec describes one asset to list.
type AssetSpec struct {
	Title      string `json:"title"`
	Grade      string `json:"grade"`
	CertNumber string `json:"certNumber"`
}

// PricingParams drives derivation for a whole add call.
type PricingParams struct {
	PctAboveMarket  float64 `json:"pctAboveMarket"`
	PriceStep       float64 `json:"priceStep"`
	ReserveStrategy string  `json:"reserveStrategy"` // match | percentage
	ReservePct      float64 `json:"reservePct"`
	ReserveStep     float64 `json:"reserveStep"`
	SplitPercent    float64 `json:"splitPercent"`
}

type AddResult struct {
	Added  []domain.ConsignmentAsset `json:"added"`
	Groups int                       `json:"priceGroups"`
}

// AddAssets inserts the specs as draft consignment assets, derives each list
// price from its market value, then groups assets whose derived price is
// equal and issues one batch price write per group.
func (s *ConsignService) AddAssets(ctx context.Context, containerID string, specs []AssetSpec, p PricingParams) (AddResult, error) {
	if len(specs) == 0 {
		return AddResult{}, &ValidationError{Msg: "no assets to add"}
	}
	if !(p.SplitPercent >= 0 && p.SplitPercent <= 100) {
		return AddResult{}, &ValidationError{Msg: "splitPercent must be between 0 and 100"}
	}

	added := make([]domain.ConsignmentAsset, 0, len(specs))
	market := map[string]float64{}
	order := make([]string, 0, len(specs))

	for _, spec := range specs {
		if spec.Title == "" {
			return AddResult{}, &ValidationError{Msg: "asset title must not be empty"}
		}

		// Market lookup is advisory; a failed quote prices the asset from a
		// zero base rather than failing the add.
		m := 0.0
		if s.Oracle != nil {
			if q, err := s.Oracle.MarketValue(ctx, spec.CertNumber); err != nil {
				applog.Advisory(nil, "consign.market.lookup", err, map[string]any{"cert": spec.CertNumber})
			} else {
				m = q.Value
			}
		}

		a := domain.ConsignmentAsset{
			ID:           uuid.NewString(),
			ContainerID:  containerID,
			Title:        spec.Title,
			Grade:        spec.Grade,
			CertNumber:   spec.CertNumber,
			Reserve:      pricing.Reserve(m, p.ReserveStrategy, p.ReservePct, p.ReserveStep),
			SplitPercent: p.SplitPercent,
			Status:       domain.StatusDraft,
		}
		if err := s.Consignments.Insert(a); err != nil {
			return AddResult{}, err
		}
		market[a.ID] = m
		order = append(order, a.ID)
		added = append(added, a)
	}

	groups := pricing.GroupByPrice(market, order, p.PctAboveMarket, p.PriceStep)
	for _, g := range groups {
		if err := s.Consignments.UpdatePriceBatch(containerID, g.AssetIDs, g.Price); err != nil {
			return AddResult{}, err
		}
		for i := range added {
			for _, id := range g.AssetIDs {
				if added[i].ID == id {
					added[i].Price = g.Price
				}
			}
		}
	}

	return AddResult{Added: added, Groups: len(groups)}, nil
}
