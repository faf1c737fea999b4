package webhook

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegionKeyURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		region Region
		want   string
	}{
		{RegionNA, "https://app.contentstack.com/.well-known/public-keys.json"},
		{RegionEU, "https://eu-app.contentstack.com/.well-known/public-keys.json"},
		{RegionAU, "https://au-app.contentstack.com/.well-known/public-keys.json"},
		{RegionAzureNA, "https://azure-na-app.contentstack.com/.well-known/public-keys.json"},
		{RegionAzureEU, "https://azure-eu-app.contentstack.com/.well-known/public-keys.json"},
		{RegionGCPNA, "https://gcp-na-app.contentstack.com/.well-known/public-keys.json"},
		{RegionGCPEU, "https://gcp-eu-app.contentstack.com/.well-known/public-keys.json"},
		{"AZZURE-NA", "https://azure-na-app.contentstack.com/.well-known/public-keys.json"},
		{"AZZURE-EU", "https://azure-eu-app.contentstack.com/.well-known/public-keys.json"},
		{"eu", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.region), func(t *testing.T) {
			t.Parallel()

			if got := tt.region.KeyURL(); got != tt.want {
				t.Errorf("KeyURL() = %q, want %q", got, tt.want)
			}
			if got := tt.region.IsSupported(); got != (tt.want != "") {
				t.Errorf("IsSupported() = %v", got)
			}
		})
	}
}

func TestRegions(t *testing.T) {
	t.Parallel()

	want := []Region{RegionNA, RegionEU, RegionAU, RegionAzureNA, RegionAzureEU, RegionGCPNA, RegionGCPEU}
	if diff := cmp.Diff(want, Regions()); diff != "" {
		t.Errorf("Regions() mismatch (-want +got):\n%s", diff)
	}

	// callers may not alter the table
	Regions()[0] = "MARS"
	if Regions()[0] != RegionNA {
		t.Error("Regions() returned the shared table")
	}
}
