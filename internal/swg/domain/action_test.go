package domain

import "testing"

func TestParseAction_CaseInsensitive(t *testing.T) {
	for _, in := range []string{"allowed", "Allowed", "ALLOWED", " allowed "} {
		a, err := ParseAction(in)
		if err != nil {
			t.Fatalf("ParseAction(%q) returned error: %v", in, err)
		}
		if a != ActionAllow {
			t.Errorf("ParseAction(%q) = %q, want %q", in, a, ActionAllow)
		}
	}
	a, err := ParseAction("Blocked")
	if err != nil {
		t.Fatalf("ParseAction(Blocked) returned error: %v", err)
	}
	if a != ActionBlock {
		t.Errorf("expected %q, got %q", ActionBlock, a)
	}
}

func TestParseAction_RejectsUnknownValues(t *testing.T) {
	for _, in := range []string{"", "deny", "allow", "yes"} {
		if _, err := ParseAction(in); err == nil {
			t.Errorf("ParseAction(%q) should fail", in)
		}
	}
}

func TestVerdict_Blocked(t *testing.T) {
	if AllowVerdict("example.com").Blocked() {
		t.Error("allow verdict must not report blocked")
	}
	v := Verdict{Domain: "example.com", Action: ActionBlock}
	if !v.Blocked() {
		t.Error("block verdict must report blocked")
	}
}
