package services

import (
	"database/sql"
	"fmt"

	"gradedesk/internal/domain"
	"gradedesk/internal/repos"
)

// SessionService is the negotiation-side glue: opening sessions and editing
// their cart lines before checkout.
type SessionService struct {
	Sessions *repos.SessionRepo
	Assets   *repos.AssetRepo
}

func NewSessionService(sessions *repos.SessionRepo, assets *repos.AssetRepo) *SessionService {
	return &SessionService{Sessions: sessions, Assets: assets}
}

func (s *SessionService) Open(userID, eventRef, sellerName string) (domain.BuySession, error) {
	return s.Sessions.Create(userID, eventRef, sellerName)
}

type SessionView struct {
	Session domain.BuySession `json:"session"`
	Lines   []domain.CartLine `json:"lines"`
	Total   float64           `json:"total"`
}

func (s *SessionService) View(userID, sessionID string) (SessionView, error) {
	sess, err := s.Sessions.Get(sessionID)
	if err == sql.ErrNoRows {
		return SessionView{}, ErrSessionNotFound
	}
	if err != nil {
		return SessionView{}, err
	}
	if sess.UserID != userID {
		return SessionView{}, ErrSessionNotFound
	}
	lines, err := s.Sessions.Lines(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	total := 0.0
	for _, l := range lines {
		total += l.OfferPrice
	}
	return SessionView{Session: sess, Lines: lines, Total: total}, nil
}

// AddLine appends one negotiated offer. The asset must exist up front; a bad
// id here is a user mistake, not the integrity fault checkout treats it as.
func (s *SessionService) AddLine(userID, sessionID, assetID string, offerPrice float64, note string) (domain.CartLine, error) {
	sess, err := s.Sessions.Get(sessionID)
	if err == sql.ErrNoRows {
		return domain.CartLine{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.CartLine{}, err
	}
	if sess.UserID != userID {
		return domain.CartLine{}, ErrSessionNotFound
	}
	if sess.Status == domain.SessionClosed {
		return domain.CartLine{}, ErrAlreadyProcessed
	}
	if offerPrice < 0 {
		return domain.CartLine{}, &ValidationError{Msg: "offerPrice must be >= 0"}
	}
	if _, err := s.Assets.Get(assetID); err == sql.ErrNoRows {
		return domain.CartLine{}, &ValidationError{Msg: fmt.Sprintf("unknown asset %s", assetID)}
	} else if err != nil {
		return domain.CartLine{}, err
	}
	return s.Sessions.AddLine(sessionID, assetID, offerPrice, note)
}

func (s *SessionService) RemoveLine(userID, sessionID, lineID string) error {
	sess, err := s.Sessions.Get(sessionID)
	if err == sql.ErrNoRows {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return ErrSessionNotFound
	}
	if sess.Status == domain.SessionClosed {
		return ErrAlreadyProcessed
	}
	return s.Sessions.RemoveLine(sessionID, lineID)
}
