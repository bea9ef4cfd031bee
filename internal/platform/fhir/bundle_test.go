package fhir

import (
	"encoding/json"
	"testing"
)

func TestNewSearchBundle(t *testing.T) {
	resources := []interface{}{
		map[string]interface{}{"resourceType": "Slot", "id": "slot-1"},
		map[string]interface{}{"resourceType": "Slot", "id": "slot-2"},
	}

	b := NewSearchBundle(resources, 10, "/fhir/Slot")

	if b.ResourceType != "Bundle" {
		t.Errorf("resourceType = %s, want Bundle", b.ResourceType)
	}
	if b.Type != "searchset" {
		t.Errorf("type = %s, want searchset", b.Type)
	}
	if b.Total == nil || *b.Total != 10 {
		t.Errorf("total = %v, want 10", b.Total)
	}
	if len(b.Entry) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(b.Entry))
	}
	if b.Entry[0].FullURL != "/fhir/Slot/slot-1" {
		t.Errorf("fullUrl = %q", b.Entry[0].FullURL)
	}
	if b.Entry[0].Search == nil || b.Entry[0].Search.Mode != "match" {
		t.Error("expected search mode match")
	}
	if len(b.Link) != 1 || b.Link[0].Relation != "self" {
		t.Errorf("expected self link, got %v", b.Link)
	}
}

func TestNewSearchBundle_TransientResourceHasNoFullURL(t *testing.T) {
	resources := []interface{}{
		map[string]interface{}{"resourceType": "Slot", "status": "free"},
	}

	b := NewSearchBundle(resources, 1, "/fhir/Schedule/s1/$find")

	if b.Entry[0].FullURL != "" {
		t.Errorf("expected empty fullUrl for resource without id, got %q", b.Entry[0].FullURL)
	}
}

func TestNewSearchBundle_Empty(t *testing.T) {
	b := NewSearchBundle(nil, 0, "/fhir/Schedule")

	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// entry must serialize as [] rather than null for FHIR clients
	if _, ok := decoded["entry"]; !ok {
		t.Error("expected entry key to be present")
	}
	if total, ok := decoded["total"].(float64); !ok || total != 0 {
		t.Errorf("total = %v, want 0", decoded["total"])
	}
}
