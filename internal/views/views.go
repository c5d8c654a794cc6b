// Package views maintains materialized index rows derived from accepted
// registry documents, in the manner of CouchDB design-document views. The
// map function is pure; persistence is a thin upsert-by-key store.
package views

import (
	"context"

	"github.com/skyfield/listenerd/internal/document"
)

// Entry is one row of the listeners-by-callsign index.
type Entry struct {
	DocID       string  `bson:"_id" json:"docId"`
	DocType     string  `bson:"docType" json:"docType"`
	Callsign    string  `bson:"callsign" json:"callsign"`
	TimeCreated float64 `bson:"timeCreated" json:"timeCreated"`
}

// ListenerEntry is the map function: it extracts the index row for a listener
// document, or returns nil for documents the view does not cover. Emitted
// keys are (callsign, time_created), matching how clients look listeners up.
func ListenerEntry(id string, d document.Doc) *Entry {
	switch d.Type() {
	case "listener_info", "listener_telemetry":
	default:
		return nil
	}
	data := d.Sub("data")
	if data == nil {
		return nil
	}
	callsign, ok := data["callsign"].(string)
	if !ok || callsign == "" {
		return nil
	}
	created, _ := document.AsNumber(d["time_created"])
	return &Entry{DocID: id, DocType: d.Type(), Callsign: callsign, TimeCreated: created}
}

// Index stores view rows keyed by source document id.
type Index interface {
	Update(ctx context.Context, e *Entry) error
	Remove(ctx context.Context, docID string) error
	ByCallsign(ctx context.Context, callsign string) ([]Entry, error)
}
