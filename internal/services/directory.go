package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/models"
)

const (
	// Placeholder is shown for any empty field of a profile card.
	Placeholder = "-"

	FetchUsersFailedMessage = "Failed to fetch users"
	LogoutSuccessMessage    = "Logged out successfully"
	LogoutFailedMessage     = "Failed to logout"
)

// ProfileCard is the display form of one profile document.
type ProfileCard struct {
	ID         string  `json:"id"`
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Gender     string  `json:"gender"`
	Interests  string  `json:"interests"`
	Picture    *string `json:"picture,omitempty"`
	Incomplete bool    `json:"incomplete"`
}

// CardFor renders a profile for display. Missing fields become Placeholder.
func CardFor(p models.Profile) ProfileCard {
	interests := make([]string, 0, len(p.Interests))
	for _, i := range p.Interests {
		interests = append(interests, string(i))
	}

	card := ProfileCard{
		ID:         orPlaceholder(p.ID),
		FullName:   orPlaceholder(p.FullName),
		Email:      orPlaceholder(p.Email),
		Phone:      orPlaceholder(p.Phone),
		Gender:     orPlaceholder(string(p.Gender)),
		Interests:  orPlaceholder(strings.Join(interests, ", ")),
		Incomplete: p.Incomplete(),
	}
	if p.ProfilePicture != nil && *p.ProfilePicture != "" {
		card.Picture = p.ProfilePicture
	}
	return card
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// DirectoryView is what the dashboard shows. Loading stays true when the
// profiles could not be fetched.
type DirectoryView struct {
	Loading bool          `json:"loading"`
	Cards   []ProfileCard `json:"cards"`
}

// SessionEnder ends a session.
type SessionEnder interface {
	SignOut(ctx context.Context, token string) error
}

// DirectoryService backs the dashboard: the profile listing and sign-out.
type DirectoryService struct {
	docs     DocumentStore
	sessions SessionEnder
	logger   *zap.Logger
}

func NewDirectoryService(docs DocumentStore, sessions SessionEnder, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{docs: docs, sessions: sessions, logger: logger}
}

// Load fetches every profile once. A failure is reported through n and
// leaves the view loading; it is not retried.
func (s *DirectoryService) Load(ctx context.Context, n Notifier) (DirectoryView, error) {
	profiles, err := s.docs.ListProfiles(ctx)
	if err != nil {
		s.logger.Error("failed to fetch profiles", zap.Error(err))
		n.Error("", FetchUsersFailedMessage)
		return DirectoryView{Loading: true, Cards: []ProfileCard{}}, err
	}

	cards := make([]ProfileCard, 0, len(profiles))
	for _, p := range profiles {
		cards = append(cards, CardFor(p))
	}
	return DirectoryView{Cards: cards}, nil
}

// SignOut ends the session and reports the outcome through n.
func (s *DirectoryService) SignOut(ctx context.Context, token string, n Notifier) error {
	if err := s.sessions.SignOut(ctx, token); err != nil {
		s.logger.Warn("sign-out failed", zap.Error(err))
		n.Error("", LogoutFailedMessage)
		return err
	}
	n.Success("", LogoutSuccessMessage)
	return nil
}
