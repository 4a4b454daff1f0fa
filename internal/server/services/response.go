package services

import (
	"errors"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/google/uuid"
)

// ResponseBase is the uniform result of operations that only report an
// outcome.
type ResponseBase struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message"`
}

func ok(msg string) ResponseBase {
	return ResponseBase{IsSuccess: true, Message: msg}
}

// Failure is a business-rule rejection. Message is shown to the client;
// Kind is one of the common sentinel errors and selects the HTTP status.
type Failure struct {
	Kind    error
	Message string
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.Kind }

func reject(kind error, msg string) error {
	return &Failure{Kind: kind, Message: msg}
}

// AsFailure reports whether err is a Failure and returns it.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func badRequest(msg string) error { return reject(common.ErrorBadRequest, msg) }
func notFound(msg string) error   { return reject(common.ErrorNotFound, msg) }

// validID reports whether id can be a primary key. Anything else can never
// match a row, so callers treat it as not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
