// Package validation holds the pre-commit hooks the registry runs before
// committing a document write, plus the result and identity types they share.
//
// Hooks are pure predicates over two document snapshots and the requester's
// role context. They hold no state and perform no I/O, so the registry may run
// them concurrently for independent writes. A hook either returns nil (write
// permitted) or a *Rejection carrying exactly one of the two outcomes the
// CouchDB validate_doc_update contract knows: unauthorized (the requester
// lacks privilege) or forbidden (the content is invalid). Nothing between a
// hook and the HTTP boundary may catch or rewrite a Rejection.
package validation

import (
	"errors"
	"fmt"

	"github.com/skyfield/listenerd/internal/document"
)

// Kind discriminates the two rejection outcomes.
type Kind int

const (
	// Forbidden: the document content is invalid; a corrected resubmission
	// may succeed.
	Forbidden Kind = iota
	// Unauthorized: the requester lacks privilege; the write is blocked
	// regardless of content.
	Unauthorized
)

func (k Kind) String() string {
	if k == Unauthorized {
		return "unauthorized"
	}
	return "forbidden"
}

// Rejection is the discriminated result of a failed hook. It implements
// error so it can flow through the service layer unchanged; only the HTTP
// boundary translates it into a status code.
type Rejection struct {
	Kind    Kind
	Message string
}

func (r *Rejection) Error() string {
	return r.Kind.String() + ": " + r.Message
}

// Unauthorizedf builds an authorization rejection.
func Unauthorizedf(format string, args ...any) *Rejection {
	return &Rejection{Kind: Unauthorized, Message: fmt.Sprintf(format, args...)}
}

// Forbiddenf builds a content rejection.
func Forbiddenf(format string, args ...any) *Rejection {
	return &Rejection{Kind: Forbidden, Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps a Rejection from an error chain.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// RoleAdmin is the only role the shipped hooks consult.
const RoleAdmin = "admin"

// UserContext is the requester identity the host passes into each hook.
type UserContext struct {
	Name  string
	Roles []string
}

// UserIs reports whether the requester's role set contains role
// (case-sensitive exact match).
func (u UserContext) UserIs(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Hook validates a proposed write. oldDoc is nil on first insert. A non-nil
// return must be a *Rejection.
type Hook func(newDoc, oldDoc document.Doc, user UserContext) error

// Hooks is an ordered hook list. Every hook runs on every write attempt;
// hooks gate themselves on the document type they care about.
type Hooks []Hook

// Validate runs the hooks in order and returns the first rejection, or nil
// when every hook accepts the write.
func (hs Hooks) Validate(newDoc, oldDoc document.Doc, user UserContext) error {
	for _, h := range hs {
		if err := h(newDoc, oldDoc, user); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the hook set the registry ships with.
func Default() Hooks {
	return Hooks{ListenerInfo, ListenerTelemetry}
}
