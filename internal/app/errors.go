package app

import (
	"errors"

	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

var (
	ErrNotFound = ports.ErrNotFound
	ErrConflict = ports.ErrConflict
	ErrInvalid  = ports.ErrInvalid
)

var (
	// ErrRemoteNotConfigured: mode local uniquement (clé/ID Notion absents).
	ErrRemoteNotConfigured  = errors.New("remote store not configured")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrUnknownLeader        = errors.New("unknown leader")
)

// CodedError porte un code stable renvoyé aux clients HTTP et affiché par la CLI.
//
// Exemples de codes: invalid_date, missing_book, date_taken, missing_remote_id.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }

// ErrorCode extrait le code d'une CodedError, "" sinon.
func ErrorCode(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
