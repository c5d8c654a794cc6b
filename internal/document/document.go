package document

import "go.mongodb.org/mongo-driver/bson"

// Doc is the semi-structured document shape stored by the registry. Documents
// arrive as decoded JSON (HTTP writes) or decoded BSON (Mongo reads), so field
// values are loosely typed: numbers may be float64, int32 or int64 depending
// on the decoder.
type Doc map[string]any

// Reserved field names. These mirror the CouchDB conventions the registry
// keeps: "_id"/"_rev" identify a revision, "_deleted" marks a tombstone.
const (
	FieldID      = "_id"
	FieldRev     = "_rev"
	FieldType    = "type"
	FieldDeleted = "_deleted"
)

// Type returns the document's type tag, or "" when absent or not a string.
func (d Doc) Type() string {
	s, _ := d[FieldType].(string)
	return s
}

// ID returns the document id, or "".
func (d Doc) ID() string {
	s, _ := d[FieldID].(string)
	return s
}

// Rev returns the revision number carried by the document, or 0.
func (d Doc) Rev() int64 {
	n, ok := AsNumber(d[FieldRev])
	if !ok {
		return 0
	}
	return int64(n)
}

// Deleted reports whether the document is a deletion tombstone.
func (d Doc) Deleted() bool {
	b, _ := d[FieldDeleted].(bool)
	return b
}

// Sub returns the named field as a nested document, or nil when the field is
// absent or not object-like.
func (d Doc) Sub(field string) Doc {
	sub, _ := asObject(d[field])
	return sub
}

// asObject recognizes the map shapes the JSON and BSON decoders produce for
// nested documents.
func asObject(v any) (Doc, bool) {
	switch m := v.(type) {
	case Doc:
		return m, true
	case map[string]any:
		return Doc(m), true
	case bson.M:
		return Doc(m), true
	default:
		return nil, false
	}
}

// Clone returns a shallow copy. Nested objects are shared; callers that
// mutate nested state must copy deeper themselves.
func (d Doc) Clone() Doc {
	if d == nil {
		return nil
	}
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// AsNumber converts any of the numeric representations a decoded document may
// carry into a float64. The bool result is false for non-numeric values.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Falsy reports whether a field value is "missing" under the loose presence
// rules CouchDB validation functions apply: absent, nil, false, numeric zero
// and the empty string all count as missing.
// Objects and arrays are always present, even when empty.
func Falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	default:
		if n, ok := AsNumber(v); ok {
			return n == 0
		}
		return false
	}
}

// KindOf returns the runtime kind tag used in validation messages. Tags
// follow JavaScript typeof naming, which is what CouchDB clients expect
// to see in rejection messages.
func KindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case Doc, map[string]any, bson.M:
		return "object"
	case []any, bson.A:
		return "array"
	default:
		if _, ok := AsNumber(v); ok {
			return "number"
		}
		return "unknown"
	}
}
