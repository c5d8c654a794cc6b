package validation

import "github.com/skyfield/listenerd/internal/document"

// TypeListenerTelemetry tags position reports uploaded by listener stations.
const TypeListenerTelemetry = "listener_telemetry"

// ListenerTelemetry validates listener_telemetry documents. It applies the
// same authorization and timestamp rules as ListenerInfo and additionally
// requires a position: telemetry without coordinates cannot be plotted.
func ListenerTelemetry(newDoc, oldDoc document.Doc, user UserContext) error {
	if newDoc.Type() != TypeListenerTelemetry {
		return nil
	}
	if oldDoc != nil && !user.UserIs(RoleAdmin) {
		return Unauthorizedf("Only administrators may edit listener_telemetry docs.")
	}
	if oldDoc != nil && newDoc.Deleted() {
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
	data := newDoc.Sub("data")
	if rej := requireField(data, "callsign", String); rej != nil {
		return rej
	}
	if rej := requireField(data, "latitude", Number); rej != nil {
		return rej
	}
	if rej := requireField(data, "longitude", Number); rej != nil {
		return rej
	}
	return nil
}
