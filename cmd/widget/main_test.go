package main

import (
	"testing"

	"github.com/filedrop/backend/internal/widget"
)

func TestParseMode(t *testing.T) {
	tests := map[string]widget.Action{
		"extract": widget.ActionExtract,
		"upload":  widget.ActionUpload,
		"both":    widget.ActionExtract | widget.ActionUpload,
	}
	for mode, want := range tests {
		got, err := parseMode(mode)
		if err != nil || got != want {
			t.Errorf("parseMode(%q) = %v, %v; want %v", mode, got, err, want)
		}
	}

	if _, err := parseMode("sideways"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}
