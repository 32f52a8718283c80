// Copyright 2024 The Nsdb Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package errors defines the typed error kinds the engine returns and their
// mapping to transport-level status codes (HTTP, RPC).
package errors

import (
	"fmt"
)

// Kind classifies an Error the way spec.md §7 enumerates it.
type Kind int

const (
	KindUnknown Kind = iota
	KindParse
	KindParams
	KindLogic
	KindNotFound
	KindForbidden
	KindStateInvalidated
	KindTagsMismatch
	KindTimeout
	KindCanceled
	KindConflict
	KindIOError
	KindReplication
	KindNamespaceInvalidated
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "Parse"
	case KindParams:
		return "Params"
	case KindLogic:
		return "Logic"
	case KindNotFound:
		return "NotFound"
	case KindForbidden:
		return "Forbidden"
	case KindStateInvalidated:
		return "StateInvalidated"
	case KindTagsMismatch:
		return "TagsMismatch"
	case KindTimeout:
		return "Timeout"
	case KindCanceled:
		return "Canceled"
	case KindConflict:
		return "Conflict"
	case KindIOError:
		return "IOError"
	case KindReplication:
		return "Replication"
	case KindNamespaceInvalidated:
		return "NamespaceInvalidated"
	default:
		return "Unknown"
	}
}

// HTTPStatus implements the mapping table of spec.md §7.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindParse, KindParams:
		return 400
	case KindForbidden:
		return 403
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	case KindStateInvalidated, KindTagsMismatch:
		return 409
	case KindTimeout:
		return 408
	case KindCanceled:
		return 499
	case KindIOError, KindReplication, KindNamespaceInvalidated:
		return 500
	default:
		return 500
	}
}

// Error is the engine's typed error. It wraps a cause without losing the
// Kind, so callers can errors.As into *Error while switch-ing on Kind for
// transport mapping.
type Error struct {
	Kind Kind
	Msg  string
	Pos  *Pos // set for Parse errors, line/column per spec.md §4.4
	err  error
}

// Pos is a parser location, used by Parse-kind errors.
type Pos struct {
	Line, Column int
}

func (e *Error) Error() string {
	if e.Pos != nil {
		return fmt.Sprintf("%s: %s (line %d, column %d)", e.Kind, e.Msg, e.Pos.Line, e.Pos.Column)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, err: cause}
}

func AtPos(kind Kind, msg string, line, column int) *Error {
	return &Error{Kind: kind, Msg: msg, Pos: &Pos{Line: line, Column: column}}
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error, else
// KindUnknown.
func KindOf(err error) Kind {
	type kinder interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(kinder)
		if !ok {
			return KindUnknown
		}
		err = u.Unwrap()
	}
	return KindUnknown
}

var (
	ErrNamespaceDoesNotExist   = New(KindNotFound, "namespace does not exist")
	ErrNamespaceAlreadyCreated = New(KindConflict, "namespace already exists")
	ErrIndexDoesNotExist       = New(KindNotFound, "index does not exist")
	ErrIndexAlreadyExists      = New(KindConflict, "index already exists")
	ErrItemDoesNotExist        = New(KindNotFound, "item does not exist")
	ErrDuplicatePK             = New(KindConflict, "duplicate primary key on insert")
	ErrUnknownQueryType        = New(KindLogic, "unknown query type")
	ErrInvalidItem             = New(KindParams, "invalid item")
	ErrUnknownFieldType        = New(KindParams, "unknown field type")
	ErrUnknownIndexType        = New(KindParams, "unknown index type")
	ErrConditionNotSupported   = New(KindLogic, "condition not supported by index")
	ErrCanceled                = New(KindCanceled, "operation canceled")
	ErrTimeout                 = New(KindTimeout, "operation timed out")
	ErrTxnNotFound             = New(KindNotFound, "transaction not found")
	ErrTxnExpired              = New(KindConflict, "transaction expired")
	ErrStateInvalidated        = New(KindStateInvalidated, "tag-matcher version is stale, resend with fresh encoding")
	ErrTagsMismatch            = New(KindTagsMismatch, "server tag-matcher extended, retry after refresh")
	ErrNamespaceInvalidated    = New(KindNamespaceInvalidated, "namespace dropped or closed under use")
)
