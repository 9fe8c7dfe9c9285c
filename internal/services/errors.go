package services

import (
	"errors"
	"fmt"
)

var (
	ErrEmailInUse         = errors.New("email address is already in use")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrBlobStoreDisabled  = errors.New("file upload service not available")
)

// Step names one stage of the registration sequence.
type Step string

const (
	StepCreateIdentity Step = "create_identity"
	StepUploadPicture  Step = "upload_picture"
	StepWriteProfile   Step = "write_profile"
)

// StepError reports which registration step failed. Steps before it are
// not rolled back.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
