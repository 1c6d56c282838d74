package id

import (
	"regexp"
	"testing"
)

func TestNewInviteCode_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-F]{8}$`)
	for i := 0; i < 50; i++ {
		code, err := NewInviteCode()
		if err != nil {
			t.Fatalf("new invite code: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("unexpected invite code %q", code)
		}
	}
}

func TestUUIDGenerator_Unique(t *testing.T) {
	gen := NewUUIDGenerator()
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		value, err := gen.NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if _, ok := seen[value]; ok {
			t.Fatalf("duplicate id %s", value)
		}
		seen[value] = struct{}{}
	}
}
