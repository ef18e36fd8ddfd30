package ui

import "testing"

func TestPaint(t *testing.T) {
	defer func(prev bool) { Enabled = prev }(Enabled)

	Enabled = true
	if got := Success("ok"); got != ColorGreen+"ok"+ColorReset {
		t.Errorf("Expected coloured text, got %q", got)
	}

	Enabled = false
	if got := Error("fail"); got != "fail" {
		t.Errorf("Expected plain text when disabled, got %q", got)
	}
}
