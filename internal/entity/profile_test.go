package entity

import "testing"

func TestDocumentSlotRoundTrip(t *testing.T) {
	p := &Profile{}
	path := "/uploads/abc-tenth.pdf"

	for _, slot := range DocumentSlots {
		if !IsDocumentSlot(slot) {
			t.Errorf("%q should be a recognized slot", slot)
		}
		p.SetDocumentPath(slot, &path)
		got := p.DocumentPath(slot)
		if got == nil || *got != path {
			t.Errorf("slot %q did not round-trip: %v", slot, got)
		}
	}

	if len(p.DocumentPaths()) != len(DocumentSlots) {
		t.Errorf("DocumentPaths returned %d entries, want %d", len(p.DocumentPaths()), len(DocumentSlots))
	}
}

func TestUnknownSlotIgnored(t *testing.T) {
	p := &Profile{}
	path := "/uploads/x.pdf"

	if IsDocumentSlot("passport") {
		t.Error("passport is not a slot")
	}
	p.SetDocumentPath("passport", &path)
	if p.DocumentPath("passport") != nil {
		t.Error("unknown slots must stay nil")
	}
}

func TestDocumentPathsSkipsEmptySlots(t *testing.T) {
	empty := ""
	path := "/uploads/pan.pdf"
	p := &Profile{Pan: &path, Aadhar: &empty}

	paths := p.DocumentPaths()
	if len(paths) != 1 || paths["pan"] != path {
		t.Errorf("DocumentPaths = %v, want only pan", paths)
	}
}
