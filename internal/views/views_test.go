package views

import (
	"context"
	"testing"

	"github.com/skyfield/listenerd/internal/document"
	"github.com/stretchr/testify/require"
)

func TestListenerEntryMapsListenerDocs(t *testing.T) {
	d := document.Doc{
		"type":          "listener_info",
		"time_created":  float64(1342978266),
		"time_uploaded": float64(1342978300),
		"data":          map[string]any{"callsign": "M0RPI"},
	}
	e := ListenerEntry("doc-1", d)
	require.NotNil(t, e)
	require.Equal(t, "doc-1", e.DocID)
	require.Equal(t, "listener_info", e.DocType)
	require.Equal(t, "M0RPI", e.Callsign)
	require.Equal(t, float64(1342978266), e.TimeCreated)
}

func TestListenerEntrySkipsOtherDocs(t *testing.T) {
	require.Nil(t, ListenerEntry("x", document.Doc{"type": "payload_configuration"}))
	require.Nil(t, ListenerEntry("x", document.Doc{"type": "listener_info"}))
	require.Nil(t, ListenerEntry("x", document.Doc{
		"type": "listener_info",
		"data": map[string]any{"callsign": 42},
	}))
}

func TestMemoryIndex(t *testing.T) {
	ix := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, ix.Update(ctx, &Entry{DocID: "a", Callsign: "G0ABC", TimeCreated: 200}))
	require.NoError(t, ix.Update(ctx, &Entry{DocID: "b", Callsign: "G0ABC", TimeCreated: 100}))
	require.NoError(t, ix.Update(ctx, &Entry{DocID: "c", Callsign: "M0XYZ", TimeCreated: 50}))

	rows, err := ix.ByCallsign(ctx, "G0ABC")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// sorted by time_created
	require.Equal(t, "b", rows[0].DocID)
	require.Equal(t, "a", rows[1].DocID)

	// update replaces the row for a doc
	require.NoError(t, ix.Update(ctx, &Entry{DocID: "a", Callsign: "M0XYZ", TimeCreated: 60}))
	rows, err = ix.ByCallsign(ctx, "G0ABC")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, ix.Remove(ctx, "c"))
	rows, err = ix.ByCallsign(ctx, "M0XYZ")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "a", rows[0].DocID)
}
