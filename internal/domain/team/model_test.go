package team

import "testing"

func TestInferRegion(t *testing.T) {
	tests := []struct {
		name string
		want Region
	}{
		{name: "VCT 2026: Pacific Kickoff", want: RegionPacific},
		{name: "VCT 2026: EMEA Stage 1", want: RegionEMEA},
		{name: "VCT 2026: Americas Kickoff", want: RegionAmericas},
		{name: "VCT 2026: China Kickoff", want: RegionCN},
		{name: "Champions Tour", want: RegionEMEA},
	}

	for _, tc := range tests {
		if got := InferRegion(tc.name); got != tc.want {
			t.Fatalf("InferRegion(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestTeam_IsPlaceholder(t *testing.T) {
	if !(Team{Name: "tbd"}).IsPlaceholder() {
		t.Fatalf("expected tbd to be placeholder")
	}
	if (Team{Name: "Fnatic"}).IsPlaceholder() {
		t.Fatalf("expected Fnatic not to be placeholder")
	}
}
