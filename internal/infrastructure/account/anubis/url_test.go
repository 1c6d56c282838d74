package anubis

import "testing"

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{name: "joins slashes", base: "https://anubis.local/", path: "/v1/introspect", want: "https://anubis.local/v1/introspect"},
		{name: "adds missing slash", base: "https://anubis.local", path: "v1/introspect", want: "https://anubis.local/v1/introspect"},
		{name: "empty path", base: " https://anubis.local/ ", path: "", want: "https://anubis.local"},
		{name: "absolute path wins", base: "https://anubis.local", path: "https://auth.example.com/introspect", want: "https://auth.example.com/introspect"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := buildURL(tc.base, tc.path); got != tc.want {
				t.Fatalf("buildURL(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
			}
		})
	}
}

func TestHashToken_StableAndOpaque(t *testing.T) {
	a := hashToken("secret-token")
	if a != hashToken("secret-token") {
		t.Fatalf("hash should be stable")
	}
	if a == hashToken("other-token") {
		t.Fatalf("different tokens should not collide")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %d chars", len(a))
	}
}
