package validation

import (
	"testing"

	"github.com/skyfield/listenerd/internal/document"
	"github.com/stretchr/testify/require"
)

func validListenerTelemetry() document.Doc {
	return document.Doc{
		"type":          "listener_telemetry",
		"time_created":  float64(100),
		"time_uploaded": float64(200),
		"data": map[string]any{
			"callsign":  "G0ABC",
			"latitude":  float64(51.5),
			"longitude": float64(-0.1),
		},
	}
}

func TestListenerTelemetry_AcceptsValidCreation(t *testing.T) {
	require.NoError(t, ListenerTelemetry(validListenerTelemetry(), nil, UserContext{}))
}

func TestListenerTelemetry_IgnoresOtherTypes(t *testing.T) {
	require.NoError(t, ListenerTelemetry(document.Doc{"type": "listener_info"}, nil, UserContext{}))
	require.NoError(t, ListenerTelemetry(document.Doc{}, nil, UserContext{}))
}

func TestListenerTelemetry_EditRequiresAdmin(t *testing.T) {
	old := validListenerTelemetry()
	err := ListenerTelemetry(validListenerTelemetry(), old, UserContext{Roles: []string{"user"}})
	requireRejected(t, err, Unauthorized,
		"Only administrators may edit listener_telemetry docs.")

	require.NoError(t, ListenerTelemetry(validListenerTelemetry(), old,
		UserContext{Roles: []string{"admin"}}))
}

func TestListenerTelemetry_RequiresPosition(t *testing.T) {
	d := validListenerTelemetry()
	delete(d.Sub("data"), "latitude")
	err := ListenerTelemetry(d, nil, UserContext{})
	requireRejected(t, err, Forbidden, "Must have a latitude field.")

	d = validListenerTelemetry()
	d.Sub("data")["longitude"] = "west"
	err = ListenerTelemetry(d, nil, UserContext{})
	requireRejected(t, err, Forbidden,
		"Wrong type for longitude (string), should be number.")
}

func TestListenerTelemetry_TimestampOrdering(t *testing.T) {
	d := validListenerTelemetry()
	d["time_uploaded"] = float64(50)
	err := ListenerTelemetry(d, nil, UserContext{})
	requireRejected(t, err, Forbidden, "Document creation date is after upload date.")
}

func TestListenerTelemetry_DeletedCreateStillValidated(t *testing.T) {
	d := document.Doc{"type": "listener_telemetry", "_deleted": true}
	err := ListenerTelemetry(d, nil, UserContext{})
	requireRejected(t, err, Forbidden, "Must have a time_created field.")
}
