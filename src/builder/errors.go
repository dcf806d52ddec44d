// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/stream"
	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
)

// ErrorKind classifies build failures.
type ErrorKind int

const (
	// UnspecifiedError is any failure not covered by a more specific kind.
	UnspecifiedError ErrorKind = iota
	// InvalidArgumentError reports a configuration or input the builder cannot use.
	InvalidArgumentError
	// DecryptionError reports a wrong password or a damaged protected payload.
	DecryptionError
	// UnsupportedOperationError reports a stream asked for a capability it lacks.
	UnsupportedOperationError
)

var errorKindNames = [...]string{
	UnspecifiedError:          "unspecified error",
	InvalidArgumentError:      "invalid argument",
	DecryptionError:           "decryption error",
	UnsupportedOperationError: "unsupported operation",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return errorKindNames[k]
}

// Error is the typed error returned by every builder.
//
// Field names the offending configuration field using its camelCase JSON path,
// for example "issuer.privateKey". Op names the step that failed.
type Error struct {
	Kind  ErrorKind
	Field string
	Op    string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if d := e.detail(); d != "" {
		b.WriteString(": ")
		b.WriteString(d)
	}
	return b.String()
}

func (e *Error) detail() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return e.Field + ": " + e.Err.Error()
	case e.Field != "":
		return e.Field
	case e.Err != nil:
		return e.Err.Error()
	}
	return ""
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidArgument returns an [InvalidArgumentError] for field. The message is
// formatted like [fmt.Errorf], so %w wraps a cause.
func InvalidArgument(field, format string, args ...any) *Error {
	return &Error{Kind: InvalidArgumentError, Field: field, Err: fmt.Errorf(format, args...)}
}

// Decryption returns a [DecryptionError] for the failed operation.
func Decryption(op string, err error) *Error {
	return &Error{Kind: DecryptionError, Op: op, Err: err}
}

// UnsupportedOperation returns an [UnsupportedOperationError] for the failed operation.
func UnsupportedOperation(op string, err error) *Error {
	return &Error{Kind: UnsupportedOperationError, Op: op, Err: err}
}

// Unspecified returns an [UnspecifiedError] for the failed operation.
func Unspecified(op string, err error) *Error {
	return &Error{Kind: UnspecifiedError, Op: op, Err: err}
}

// KindOf classifies err. A typed [Error] reports its own kind. Otherwise password
// failures from the envelope, key and store codecs are [DecryptionError], stream
// capability failures are [UnsupportedOperationError], and everything else,
// including nil, is [UnspecifiedError].
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, crypt.ErrDecryption),
		errors.Is(err, x509certs.ErrKeyPassword),
		errors.Is(err, x509certs.ErrStorePassword):
		return DecryptionError
	case errors.Is(err, stream.ErrUnsupportedOperation):
		return UnsupportedOperationError
	}
	return UnspecifiedError
}

// classify returns err as an [*Error], wrapping untyped errors under op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}

// Problem is an RFC 9457 problem description of a build failure.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

// GenericDetail is the detail reported for failures whose cause is not shown to callers.
const GenericDetail = "an unexpected error occurred"

// ProblemOf describes err for callers outside the process. Only invalid
// arguments expose their message; the cause of other kinds stays reachable
// through [errors.Unwrap] on err itself.
func ProblemOf(err error) Problem {
	switch KindOf(err) {
	case InvalidArgumentError:
		detail := err.Error()
		var e *Error
		if errors.As(err, &e) {
			detail = e.detail()
		}
		return Problem{
			Type:   "urn:x509-builder:invalid-argument",
			Title:  "Invalid argument",
			Detail: detail,
			Status: http.StatusBadRequest,
		}
	case DecryptionError:
		return Problem{
			Type:   "urn:x509-builder:decryption",
			Title:  "Decryption failed",
			Detail: "the payload could not be decrypted with the supplied password",
			Status: http.StatusUnprocessableEntity,
		}
	case UnsupportedOperationError:
		return Problem{
			Type:   "urn:x509-builder:unsupported-operation",
			Title:  "Unsupported operation",
			Detail: GenericDetail,
			Status: http.StatusInternalServerError,
		}
	}
	return Problem{
		Type:   "urn:x509-builder:unspecified",
		Title:  "Internal error",
		Detail: GenericDetail,
		Status: http.StatusInternalServerError,
	}
}
