package validation

import "github.com/skyfield/listenerd/internal/document"

// TypeListenerInfo tags documents describing a listener station: who runs
// it, where it is, what equipment it uses.
const TypeListenerInfo = "listener_info"

// ListenerInfo is the pre-commit hook for listener_info documents. Documents
// of any other type pass through untouched. Checks run in a fixed order and
// the first violation wins:
//
//  1. edits (oldDoc present) require the admin role
//  2. time_created: required number
//  3. time_uploaded: required number
//  4. time_created must be strictly before time_uploaded
//  5. data: required object
//  6. data.callsign: required string
func ListenerInfo(newDoc, oldDoc document.Doc, user UserContext) error {
	if newDoc.Type() != TypeListenerInfo {
		return nil
	}
	if oldDoc != nil && !user.UserIs(RoleAdmin) {
		return Unauthorizedf("Only administrators may edit listener_info docs.")
	}
	if oldDoc != nil && newDoc.Deleted() {
		// deletion tombstones for existing docs carry no content to check;
		// a _deleted create still has to pass the field checks below
		return nil
	}
	if rej := requireField(newDoc, "time_created", Number); rej != nil {
		return rej
	}
	if rej := requireField(newDoc, "time_uploaded", Number); rej != nil {
		return rej
	}
	created, _ := document.AsNumber(newDoc["time_created"])
	uploaded, _ := document.AsNumber(newDoc["time_uploaded"])
	if created >= uploaded {
		return Forbiddenf("Document creation date is after upload date.")
	}
	if rej := requireField(newDoc, "data", Object); rej != nil {
		return rej
	}
	if rej := requireField(newDoc.Sub("data"), "callsign", String); rej != nil {
		return rej
	}
	return nil
}
