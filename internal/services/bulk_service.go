package services

import (
	"database/sql"
	"fmt"
	"strings"

	"gradedesk/internal/domain"
	"gradedesk/internal/repos"
)

// BulkService applies homogeneous field changes across many consignment
// assets. It deliberately inverts the checkout's all-or-nothing policy: each
// asset is updated independently and one stale identifier never holds the
// rest of the batch hostage.
type BulkService struct {
	Consignments *repos.ConsignmentRepo
}

func NewBulkService(consignments *repos.ConsignmentRepo) *BulkService {
	return &BulkService{Consignments: consignments}
}

// ValidationError rejects a whole bulk call before any mutation.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

type BulkFields struct {
	Price        *float64 `json:"price"`
	Reserve      *float64 `json:"reserve"`
	SplitPercent *float64 `json:"splitPercent"`
	Status       *string  `json:"status"`
}

type BulkResult struct {
	Updated int      `json:"updated,omitempty"`
	Deleted int      `json:"deleted,omitempty"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors,omitempty"`
}

var validStatuses = map[string]bool{
	domain.StatusDraft:    true,
	domain.StatusActive:   true,
	domain.StatusOnHold:   true,
	domain.StatusSold:     true,
	domain.StatusReturned: true,
}

// NormalizeStatus folds case, surrounding space, and inner space/hyphen runs,
// so "On Hold" and "on-hold" both persist as on_hold.
func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}

// BulkUpdate validates the whole request up front (cheap and uniform), then
// patches each asset on its own, collecting per-item failures.
func (s *BulkService) BulkUpdate(containerID string, assetIDs []string, f BulkFields) (BulkResult, error) {
	if len(assetIDs) == 0 {
		return BulkResult{}, &ValidationError{Msg: "assetIds must not be empty"}
	}
	if f.Price == nil && f.Reserve == nil && f.SplitPercent == nil && f.Status == nil {
		return BulkResult{}, &ValidationError{Msg: "at least one field to update is required"}
	}
	if f.Price != nil && *f.Price < 0 {
		return BulkResult{}, &ValidationError{Msg: "price must be >= 0"}
	}
	if f.Reserve != nil && *f.Reserve < 0 {
		return BulkResult{}, &ValidationError{Msg: "reserve must be >= 0"}
	}
	if f.SplitPercent != nil && (*f.SplitPercent < 0 || *f.SplitPercent > 100) {
		return BulkResult{}, &ValidationError{Msg: "splitPercent must be between 0 and 100"}
	}

	patch := repos.FieldPatch{Price: f.Price, Reserve: f.Reserve, SplitPercent: f.SplitPercent}
	if f.Status != nil {
		norm := NormalizeStatus(*f.Status)
		if norm == "" {
			return BulkResult{}, &ValidationError{Msg: "status must not be empty"}
		}
		if !validStatuses[norm] {
			return BulkResult{}, &ValidationError{Msg: fmt.Sprintf("unknown status %q", norm)}
		}
		patch.Status = &norm
	}

	out := BulkResult{Total: len(assetIDs)}
	for _, id := range assetIDs {
		err := s.Consignments.UpdateFields(containerID, id, patch)
		switch {
		case err == sql.ErrNoRows:
			out.Errors = append(out.Errors, fmt.Sprintf("asset %s not found", id))
		case err != nil:
			out.Errors = append(out.Errors, fmt.Sprintf("asset %s: %v", id, err))
		default:
			out.Updated++
		}
	}
	return out, nil
}

// BulkDelete removes assets with the same per-item isolation. Deletes are
// allowed regardless of status, matching the asset-level behavior of the
// consignment desk.
func (s *BulkService) BulkDelete(containerID string, assetIDs []string) (BulkResult, error) {
	if len(assetIDs) == 0 {
		return BulkResult{}, &ValidationError{Msg: "assetIds must not be empty"}
	}

	out := BulkResult{Total: len(assetIDs)}
	for _, id := range assetIDs {
		err := s.Consignments.Delete(containerID, id)
		switch {
		case err == sql.ErrNoRows:
			out.Errors = append(out.Errors, fmt.Sprintf("asset %s not found", id))
		case err != nil:
			out.Errors = append(out.Errors, fmt.Sprintf("asset %s: %v", id, err))
		default:
			out.Deleted++
		}
	}
	return out, nil
}
