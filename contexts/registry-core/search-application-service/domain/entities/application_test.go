package entities

import "testing"

func TestParseApplicationStatus(t *testing.T) {
	status, ok := ParseApplicationStatus(" Submitted ")
	if !ok || status != ApplicationStatusSubmitted {
		t.Fatalf("expected submitted, got %q ok=%v", status, ok)
	}
	if _, ok := ParseApplicationStatus("galactic"); ok {
		t.Fatalf("expected unknown status to fail parsing")
	}
}

func TestStatusLifecyclePredicates(t *testing.T) {
	if !ApplicationStatusCompleted.IsTerminal() || !ApplicationStatusRejected.IsTerminal() {
		t.Fatalf("completed and rejected must be terminal")
	}
	if ApplicationStatusPending.IsTerminal() || ApplicationStatusAssigned.IsTerminal() {
		t.Fatalf("pending and assigned must not be terminal")
	}
	if !ApplicationStatusSubmitted.Assignable() || !ApplicationStatusAssigned.Assignable() {
		t.Fatalf("submitted and assigned applications accept assignment")
	}
	if ApplicationStatusPending.Assignable() || ApplicationStatusCompleted.Assignable() {
		t.Fatalf("pending and completed applications must not accept assignment")
	}
}
