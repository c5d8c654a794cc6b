package validation

import "github.com/skyfield/listenerd/internal/document"

// FieldKind names the runtime kinds a required field may be checked against.
// The tags match document.KindOf so rejection messages use the typeof
// vocabulary CouchDB clients expect.
type FieldKind int

const (
	// Any skips the type check; only presence is enforced.
	Any FieldKind = iota
	Number
	String
	Object
)

func (k FieldKind) String() string {
	switch k {
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	default:
		return "any"
	}
}

// requireField checks that target carries the named field with the expected
// kind. The target record is always explicit: hooks call it once against the
// top-level document and again against nested sub-records.
//
// Presence follows document.Falsy, so nil, false, numeric 0 and "" all count
// as missing. That loose rule is inherited behavior the hooks preserve.
func requireField(target document.Doc, field string, kind FieldKind) *Rejection {
	v := target[field]
	if document.Falsy(v) {
		return Forbiddenf("Must have a %s field.", field)
	}
	if kind == Any {
		return nil
	}
	if actual := document.KindOf(v); actual != kind.String() {
		return Forbiddenf("Wrong type for %s (%s), should be %s.", field, actual, kind)
	}
	return nil
}
