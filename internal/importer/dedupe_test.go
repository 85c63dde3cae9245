package importer

import (
	"reflect"
	"testing"
	"time"
)

func ts(minute int) time.Time {
	return time.Date(2026, 5, 4, 10, minute, 0, 0, time.UTC)
}

func TestDedupeKeepsLatestTimestamp(t *testing.T) {
	responses := []Response{
		{DeviceID: "A", GUID: "G1", OptionID: 1, Answered: ts(0)},
		{DeviceID: "A", GUID: "G1", OptionID: 2, Answered: ts(5)},
		{DeviceID: "B", GUID: "G1", OptionID: 3, Answered: ts(2)},
	}
	deduped := Dedupe(responses)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(deduped))
	}
	if deduped[0].OptionID != 2 {
		t.Errorf("later response should survive, got option %d", deduped[0].OptionID)
	}
	if deduped[0].DeviceID != "A" || deduped[1].DeviceID != "B" {
		t.Errorf("first-occurrence order not preserved: %+v", deduped)
	}
}

func TestDedupeTiesAndMissingKeepFirstSeen(t *testing.T) {
	responses := []Response{
		{DeviceID: "A", GUID: "G1", OptionID: 1, Answered: ts(3)},
		{DeviceID: "A", GUID: "G1", OptionID: 2, Answered: ts(3)},
		{DeviceID: "B", GUID: "G2", OptionID: 3},
		{DeviceID: "B", GUID: "G2", OptionID: 4},
	}
	deduped := Dedupe(responses)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(deduped))
	}
	if deduped[0].OptionID != 1 {
		t.Errorf("tie should keep first seen, got option %d", deduped[0].OptionID)
	}
	if deduped[1].OptionID != 3 {
		t.Errorf("missing timestamps should keep first seen, got option %d", deduped[1].OptionID)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	responses := []Response{
		{DeviceID: "A", GUID: "G1", OptionID: 1, Answered: ts(0)},
		{DeviceID: "A", GUID: "G1", OptionID: 2, Answered: ts(5)},
		{DeviceID: "A", GUID: "G2", OptionID: 1},
		{DeviceID: "C", GUID: "G1", OptionID: 1, Answered: ts(1)},
	}
	once := Dedupe(responses)
	twice := Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("dedupe not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}
