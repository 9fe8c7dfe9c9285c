package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/models"
	"github.com/AnshRaj112/profiledir-backend/pkg/utils"
)

const (
	RegisterLoadingMessage = "Creating Your Account..."
	RegisterSuccessMessage = "Account created successfully!"
)

// Upload is a file attached to a form. ContentType is sniffed from the
// content, not taken from the client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// RegistrationForm is the candidate record submitted by the sign-up form.
type RegistrationForm struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	Gender          models.Gender
	Interests       []models.Interest
	Picture         *Upload
	// PictureCount is the number of files the client attached.
	PictureCount int
}

// IdentityCreator is the part of the identity provider registration needs.
type IdentityCreator interface {
	CreateIdentity(ctx context.Context, email, password string) (string, error)
}

// RegistrationService creates an identity, stores the optional picture and
// writes the profile document, in that order.
type RegistrationService struct {
	identities IdentityCreator
	docs       DocumentStore
	blobs      BlobStore
	maxUpload  int64
	logger     *zap.Logger

	newKey func() string
	now    func() time.Time
}

func NewRegistrationService(identities IdentityCreator, docs DocumentStore, blobs BlobStore, maxUpload int64, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		identities: identities,
		docs:       docs,
		blobs:      blobs,
		maxUpload:  maxUpload,
		logger:     logger,
		newKey:     uuid.NewString,
		now:        time.Now,
	}
}

func (s *RegistrationService) rules() []utils.Rule[RegistrationForm] {
	return []utils.Rule[RegistrationForm]{
		{Field: "full_name", Check: func(f RegistrationForm) string {
			return utils.Required(f.FullName, "Full name is required")
		}},
		{Field: "email", Check: func(f RegistrationForm) string {
			return utils.Required(f.Email, "Email is required")
		}},
		{Field: "password", Check: func(f RegistrationForm) string {
			return utils.Present(f.Password, "Password is required")
		}},
		{Field: "password", Check: func(f RegistrationForm) string {
			if utf8.RuneCountInString(f.Password) < MinPasswordLength {
				return "At least 6 characters"
			}
			return ""
		}},
		{Field: "confirm_password", Check: func(f RegistrationForm) string {
			return utils.Present(f.ConfirmPassword, "Please confirm your password")
		}},
		{Field: "confirm_password", Check: func(f RegistrationForm) string {
			if f.ConfirmPassword != f.Password {
				return "Passwords do not match"
			}
			return ""
		}},
		{Field: "phone", Check: func(f RegistrationForm) string {
			return utils.Required(f.Phone, "Phone number is required")
		}},
		{Field: "gender", Check: func(f RegistrationForm) string {
			if !f.Gender.Valid() {
				return "Please select gender"
			}
			return ""
		}},
		{Field: "interests", Check: func(f RegistrationForm) string {
			for _, i := range f.Interests {
				if !i.Valid() {
					return fmt.Sprintf("Unknown interest %q", i)
				}
			}
			return ""
		}},
		{Field: "file", Check: func(f RegistrationForm) string {
			if f.PictureCount > 1 {
				return "Only one file can be uploaded"
			}
			return ""
		}},
		{Field: "file", Check: func(f RegistrationForm) string {
			if f.Picture != nil && !strings.HasPrefix(f.Picture.ContentType, "image/") {
				return "File must be an image"
			}
			return ""
		}},
		{Field: "file", Check: func(f RegistrationForm) string {
			if f.Picture != nil && s.maxUpload > 0 && f.Picture.Size > s.maxUpload {
				return fmt.Sprintf("File must be at most %d MB", s.maxUpload>>20)
			}
			return ""
		}},
	}
}

// Validate checks the form without touching any store.
func (s *RegistrationService) Validate(form RegistrationForm) utils.FieldErrors {
	return utils.Validate(form, s.rules())
}

// Register runs the registration sequence and returns the new identity id.
//
// Invalid forms return utils.FieldErrors before any store is called and
// raise no notification. Store failures are returned as *StepError and
// reported through n with the store's own message. Earlier steps are not
// undone.
func (s *RegistrationService) Register(ctx context.Context, form RegistrationForm, n Notifier) (string, error) {
	if err := s.Validate(form).Err(); err != nil {
		return "", err
	}

	toastID := n.Loading(RegisterLoadingMessage)

	identityID, err := s.identities.CreateIdentity(ctx, form.Email, form.Password)
	if err != nil {
		n.Error(toastID, err.Error())
		return "", &StepError{Step: StepCreateIdentity, Err: err}
	}

	var pictureURL *string
	if form.Picture != nil {
		url, err := s.storePicture(ctx, form.Picture)
		if err != nil {
			return "", s.fail(n, toastID, identityID, StepUploadPicture, err)
		}
		pictureURL = &url
	}

	interests := uniqueInterests(form.Interests)
	profile := &models.Profile{
		ID:             identityID,
		CreatedAt:      s.now().UTC(),
		FullName:       strings.TrimSpace(form.FullName),
		Email:          NormalizeEmail(form.Email),
		Phone:          strings.TrimSpace(form.Phone),
		Gender:         form.Gender,
		Interests:      interests,
		ProfilePicture: pictureURL,
	}
	if err := s.docs.WriteProfile(ctx, profile); err != nil {
		return "", s.fail(n, toastID, identityID, StepWriteProfile, err)
	}

	n.Success(toastID, RegisterSuccessMessage)
	s.logger.Info("registration complete",
		zap.String("identity_id", identityID),
		zap.Bool("has_picture", pictureURL != nil),
	)
	return identityID, nil
}

func (s *RegistrationService) storePicture(ctx context.Context, pic *Upload) (string, error) {
	key := s.newKey()
	if err := s.blobs.Upload(ctx, key, pic.Body); err != nil {
		return "", err
	}
	return s.blobs.URL(ctx, key)
}

// fail reports a failure after the identity exists. The identity is left in
// place and logged so it can be repaired by hand.
func (s *RegistrationService) fail(n Notifier, toastID, identityID string, step Step, err error) error {
	n.Error(toastID, err.Error())
	s.logger.Warn("registration left partial state",
		zap.String("identity_id", identityID),
		zap.String("failed_step", string(step)),
		zap.Error(err),
	)
	return &StepError{Step: step, Err: err}
}

// uniqueInterests drops repeated tags, keeping first-seen order. The result
// is never nil.
func uniqueInterests(in []models.Interest) []models.Interest {
	out := make([]models.Interest, 0, len(in))
	seen := make(map[models.Interest]struct{}, len(in))
	for _, i := range in {
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}

// IsValidationError reports whether err came from form validation.
func IsValidationError(err error) bool {
	var fe utils.FieldErrors
	return errors.As(err, &fe)
}
