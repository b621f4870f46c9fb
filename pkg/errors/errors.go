package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Reason is the stable machine-checkable error code surfaced to API clients.
type Reason string

const (
	ReasonAuthenticationRequired  Reason = "authentication_required"
	ReasonInvalidUserOrPassword   Reason = "invalid_user_or_password"
	ReasonInsufficientPermissions Reason = "insufficient_permissions"
	ReasonMissingQualifications   Reason = "missing_qualifications"
	ReasonPermissionsNotSubset    Reason = "permissions_not_subset"
	ReasonNoSuchUser              Reason = "no_such_user"
	ReasonNonexistentItem         Reason = "nonexistent_item"
	ReasonUnknownBorrowState      Reason = "unknown_borrowstate"
	ReasonUnknownTransferRequest  Reason = "unknown_transfer_request"
	ReasonUnknownTransferAction   Reason = "unknown_transfer_request_action"
	ReasonAlreadyBorrowed         Reason = "already_borrowed"
	ReasonItemNotBorrowed         Reason = "item_not_borrowed"
	ReasonUnknownQualification    Reason = "unknown_qualification"
	ReasonUserExists              Reason = "user_exists"
	ReasonItemExists              Reason = "item_exists"
	ReasonQualificationExists     Reason = "qualification_exists"
	ReasonNoSuchObject            Reason = "no_such_object"
	ReasonIncorrectID             Reason = "incorrect_id"
	ReasonIDMismatch              Reason = "id_mismatch"
	ReasonMissingFields           Reason = "missing_fields"
	ReasonPasswordMismatch        Reason = "password_mismatch"
	ReasonInvalidToken            Reason = "invalid_token"
	ReasonExpiredToken            Reason = "expired_token"
	ReasonValidationFailed        Reason = "validation_failed"
	ReasonInternal                Reason = "internal_error"
	ReasonDependencyUnavailable   Reason = "dependency_unavailable"
)

// Metadata describes how a reason maps onto the HTTP surface.
type Metadata struct {
	HTTPStatus    int
	PublicMessage string
}

var metadataByReason = map[Reason]Metadata{
	ReasonAuthenticationRequired:  {http.StatusForbidden, "authentication required"},
	ReasonInvalidUserOrPassword:   {http.StatusForbidden, "invalid username or password"},
	ReasonInsufficientPermissions: {http.StatusForbidden, "insufficient permissions"},
	ReasonMissingQualifications:   {http.StatusForbidden, "missing required qualifications"},
	ReasonPermissionsNotSubset:    {http.StatusForbidden, "cannot grant permissions you do not hold"},
	ReasonNoSuchUser:              {http.StatusBadRequest, "no such user"},
	ReasonNonexistentItem:         {http.StatusBadRequest, "item does not exist"},
	ReasonUnknownBorrowState:      {http.StatusBadRequest, "unknown borrow state"},
	ReasonUnknownTransferRequest:  {http.StatusNotFound, "unknown transfer request"},
	ReasonUnknownTransferAction:   {http.StatusBadRequest, "unknown transfer request action"},
	ReasonAlreadyBorrowed:         {http.StatusBadRequest, "insufficient stock"},
	ReasonItemNotBorrowed:         {http.StatusBadRequest, "item is not borrowed"},
	ReasonUnknownQualification:    {http.StatusBadRequest, "unknown qualification"},
	ReasonUserExists:              {http.StatusBadRequest, "user already exists"},
	ReasonItemExists:              {http.StatusBadRequest, "item already exists"},
	ReasonQualificationExists:     {http.StatusBadRequest, "qualification already exists"},
	ReasonNoSuchObject:            {http.StatusBadRequest, "no such object"},
	ReasonIncorrectID:             {http.StatusBadRequest, "incorrect id"},
	ReasonIDMismatch:              {http.StatusBadRequest, "id does not match URL"},
	ReasonMissingFields:           {http.StatusBadRequest, "required fields missing"},
	ReasonPasswordMismatch:        {http.StatusBadRequest, "passwords do not match"},
	ReasonInvalidToken:            {http.StatusBadRequest, "invalid registration token"},
	ReasonExpiredToken:            {http.StatusBadRequest, "registration token expired"},
	ReasonValidationFailed:        {http.StatusBadRequest, "validation failed"},
	ReasonInternal:                {http.StatusInternalServerError, "internal server error"},
	ReasonDependencyUnavailable:   {http.StatusServiceUnavailable, "dependency unavailable"},
}

// MetadataFor resolves the response metadata for a reason, defaulting to internal_error.
func MetadataFor(reason Reason) Metadata {
	if meta, ok := metadataByReason[reason]; ok {
		return meta
	}
	return metadataByReason[ReasonInternal]
}

// Error is the typed error carried from services to the HTTP layer. Details are
// merged into the error response body next to the reason (e.g. the per-item
// stock report on already_borrowed).
type Error struct {
	reason  Reason
	message string
	details map[string]any
	cause   error
}

func New(reason Reason, message string) *Error {
	return &Error{reason: reason, message: message}
}

func Wrap(reason Reason, err error, message string) *Error {
	if err == nil {
		return New(reason, message)
	}
	return &Error{reason: reason, message: message, cause: err}
}

func (e *Error) Reason() Reason {
	if e == nil {
		return ReasonInternal
	}
	return e.reason
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// WithDetail attaches an extra top-level field to the error response body.
func (e *Error) WithDetail(key string, value any) *Error {
	if e == nil {
		return nil
	}
	if e.details == nil {
		e.details = map[string]any{}
	}
	e.details[key] = value
	return e
}

func (e *Error) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.message == "" {
		return string(e.reason)
	}
	return fmt.Sprintf("%s: %s", e.reason, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts a typed *Error from an error chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
