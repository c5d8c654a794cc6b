package validation

import (
	"testing"

	"github.com/skyfield/listenerd/internal/document"
	"github.com/stretchr/testify/require"
)

func validListenerInfo() document.Doc {
	return document.Doc{
		"type":          "listener_info",
		"time_created":  float64(100),
		"time_uploaded": float64(200),
		"data":          map[string]any{"callsign": "G0ABC"},
	}
}

func requireRejected(t *testing.T, err error, kind Kind, message string) {
	t.Helper()
	require.Error(t, err)
	rej, ok := AsRejection(err)
	require.True(t, ok, "expected a Rejection, got %T: %v", err, err)
	require.Equal(t, kind, rej.Kind)
	require.Equal(t, message, rej.Message)
}

func TestListenerInfo_AcceptsValidCreation(t *testing.T) {
	err := ListenerInfo(validListenerInfo(), nil, UserContext{})
	require.NoError(t, err)
}

func TestListenerInfo_IgnoresOtherTypes(t *testing.T) {
	// everything else about the document is garbage; the type gate must
	// short-circuit before any field check runs
	docs := []document.Doc{
		{"type": "other_type"},
		{"type": "other_type", "time_created": "yesterday", "data": 7},
		{},
		{"type": 42},
	}
	for _, d := range docs {
		require.NoError(t, ListenerInfo(d, nil, UserContext{}), "doc %#v", d)
		require.NoError(t, ListenerInfo(d, document.Doc{}, UserContext{}), "doc %#v with oldDoc", d)
	}
}

func TestListenerInfo_EditRequiresAdmin(t *testing.T) {
	old := validListenerInfo()

	err := ListenerInfo(validListenerInfo(), old, UserContext{Roles: []string{"user"}})
	requireRejected(t, err, Unauthorized,
		"Only administrators may edit listener_info docs.")

	// content validity is irrelevant: authorization is checked first
	err = ListenerInfo(document.Doc{"type": "listener_info"}, old, UserContext{})
	requireRejected(t, err, Unauthorized,
		"Only administrators may edit listener_info docs.")

	// admin may edit
	err = ListenerInfo(validListenerInfo(), old, UserContext{Roles: []string{"admin", "user"}})
	require.NoError(t, err)
}

func TestListenerInfo_CreationSkipsAuthorization(t *testing.T) {
	// no oldDoc: any requester may create
	err := ListenerInfo(validListenerInfo(), nil, UserContext{Roles: []string{"user"}})
	require.NoError(t, err)
	err = ListenerInfo(validListenerInfo(), nil, UserContext{})
	require.NoError(t, err)
}

func TestListenerInfo_TimestampOrdering(t *testing.T) {
	d := validListenerInfo()
	d["time_created"] = float64(200)
	d["time_uploaded"] = float64(100)
	err := ListenerInfo(d, nil, UserContext{})
	requireRejected(t, err, Forbidden, "Document creation date is after upload date.")

	// equal timestamps are rejected too: the ordering is strict
	d["time_created"] = float64(100)
	err = ListenerInfo(d, nil, UserContext{})
	requireRejected(t, err, Forbidden, "Document creation date is after upload date.")
}

func TestListenerInfo_RequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(document.Doc)
		message string
	}{
		{"missing time_created", func(d document.Doc) { delete(d, "time_created") },
			"Must have a time_created field."},
		{"zero time_created treated as missing", func(d document.Doc) { d["time_created"] = float64(0) },
			"Must have a time_created field."},
		{"wrong type time_created", func(d document.Doc) { d["time_created"] = "2012-07-22" },
			"Wrong type for time_created (string), should be number."},
		{"missing time_uploaded", func(d document.Doc) { delete(d, "time_uploaded") },
			"Must have a time_uploaded field."},
		{"wrong type time_uploaded", func(d document.Doc) { d["time_uploaded"] = true },
			"Wrong type for time_uploaded (boolean), should be number."},
		{"missing data", func(d document.Doc) { delete(d, "data") },
			"Must have a data field."},
		{"wrong type data", func(d document.Doc) { d["data"] = "G0ABC" },
			"Wrong type for data (string), should be object."},
		{"missing callsign", func(d document.Doc) { d["data"] = map[string]any{} },
			"Must have a callsign field."},
		{"empty callsign treated as missing", func(d document.Doc) { d["data"] = map[string]any{"callsign": ""} },
			"Must have a callsign field."},
		{"wrong type callsign", func(d document.Doc) { d["data"] = map[string]any{"callsign": float64(7)} },
			"Wrong type for callsign (number), should be string."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validListenerInfo()
			tc.mutate(d)
			err := ListenerInfo(d, nil, UserContext{})
			requireRejected(t, err, Forbidden, tc.message)
		})
	}
}

func TestListenerInfo_FirstViolationWins(t *testing.T) {
	// several fields broken at once: the rejection must name the first
	// failing check in the fixed order
	d := document.Doc{
		"type":          "listener_info",
		"time_created":  "garbage",
		"time_uploaded": "garbage",
		"data":          7,
	}
	err := ListenerInfo(d, nil, UserContext{})
	requireRejected(t, err, Forbidden,
		"Wrong type for time_created (string), should be number.")

	// fix time_created: next failure reported is time_uploaded
	d["time_created"] = float64(100)
	err = ListenerInfo(d, nil, UserContext{})
	requireRejected(t, err, Forbidden,
		"Wrong type for time_uploaded (string), should be number.")

	// fix time_uploaded: data is next
	d["time_uploaded"] = float64(200)
	err = ListenerInfo(d, nil, UserContext{})
	requireRejected(t, err, Forbidden,
		"Wrong type for data (number), should be object.")
}

func TestListenerInfo_Tombstones(t *testing.T) {
	old := validListenerInfo()
	tomb := document.Doc{"type": "listener_info", "_deleted": true}

	// deletion is an edit: admin only
	err := ListenerInfo(tomb, old, UserContext{Roles: []string{"user"}})
	requireRejected(t, err, Unauthorized, "Only administrators may edit listener_info docs.")

	// admins may delete; tombstones skip the content checks
	require.NoError(t, ListenerInfo(tomb, old, UserContext{Roles: []string{"admin"}}))
}

func TestListenerInfo_DeletedCreateStillValidated(t *testing.T) {
	// the tombstone exemption only applies to edits of existing docs;
	// a fresh doc carrying _deleted does not get to skip the field checks
	d := document.Doc{"type": "listener_info", "_deleted": true}
	err := ListenerInfo(d, nil, UserContext{})
	requireRejected(t, err, Forbidden, "Must have a time_created field.")

	// a complete _deleted create is accepted like any other valid doc
	full := validListenerInfo()
	full["_deleted"] = true
	require.NoError(t, ListenerInfo(full, nil, UserContext{}))
}

func TestListenerInfo_AcceptsIntegerDecodedTimestamps(t *testing.T) {
	// BSON decodes small integers to int32/int64 rather than float64
	d := validListenerInfo()
	d["time_created"] = int32(100)
	d["time_uploaded"] = int64(200)
	require.NoError(t, ListenerInfo(d, nil, UserContext{}))
}

func TestListenerInfo_Idempotent(t *testing.T) {
	d := validListenerInfo()
	d["time_created"] = float64(300)
	old := validListenerInfo()
	user := UserContext{Roles: []string{"user"}}
	first := ListenerInfo(d, old, user)
	second := ListenerInfo(d, old, user)
	requireRejected(t, first, Unauthorized, "Only administrators may edit listener_info docs.")
	requireRejected(t, second, Unauthorized, "Only administrators may edit listener_info docs.")
}
