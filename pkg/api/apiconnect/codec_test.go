package apiconnect

import (
	"encoding/json"
	"testing"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestCodec_KeepsDocumentBytes(t *testing.T) {
	doc := `{"group":{"id":"g1","name":"<Tom & Jerry>"}}`
	msg := &api.BuildSettlementResponse{
		Document:  json.RawMessage(doc),
		Canonical: doc,
	}

	data, err := Codec{}.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if data[len(data)-1] == '\n' {
		t.Error("trailing newline not trimmed")
	}

	var got api.BuildSettlementResponse
	if err := (Codec{}).Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if string(got.Document) != doc {
		t.Errorf("Document = %s, want %s", got.Document, doc)
	}
	if got.Canonical != doc {
		t.Errorf("Canonical = %s, want %s", got.Canonical, doc)
	}
}

func TestCodec_EmptyBody(t *testing.T) {
	var req api.ListGroupsRequest
	if err := (Codec{}).Unmarshal(nil, &req); err != nil {
		t.Errorf("Unmarshal(nil) = %v", err)
	}
	if (Codec{}).Name() != "json" {
		t.Errorf("Name = %q", Codec{}.Name())
	}
}
