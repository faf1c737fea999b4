package webhook

import "slices"

// Region is a Contentstack deployment region code.
type Region string

const (
	RegionNA      Region = "NA"
	RegionEU      Region = "EU"
	RegionAU      Region = "AU"
	RegionAzureNA Region = "AZURE-NA"
	RegionAzureEU Region = "AZURE-EU"
	RegionGCPNA   Region = "GCP-NA"
	RegionGCPEU   Region = "GCP-EU"
)

const keyPath = "/.well-known/public-keys.json"

// ordered; the first entry is the default region.
var regionHosts = []struct {
	region Region
	host   string
}{
	{RegionNA, "app.contentstack.com"},
	{RegionEU, "eu-app.contentstack.com"},
	{RegionAU, "au-app.contentstack.com"},
	{RegionAzureNA, "azure-na-app.contentstack.com"},
	{RegionAzureEU, "azure-eu-app.contentstack.com"},
	{RegionGCPNA, "gcp-na-app.contentstack.com"},
	{RegionGCPEU, "gcp-eu-app.contentstack.com"},
}

// codes published by older SDK releases
var regionAliases = map[Region]Region{
	"AZZURE-NA": RegionAzureNA,
	"AZZURE-EU": RegionAzureEU,
}

// Regions returns the supported region codes in table order.
func Regions() []Region {
	regions := make([]Region, 0, len(regionHosts))
	for _, rh := range regionHosts {
		regions = append(regions, rh.region)
	}
	return regions
}

// Canonical resolves legacy aliases. Unknown codes are returned unchanged.
func (r Region) Canonical() Region {
	if c, ok := regionAliases[r]; ok {
		return c
	}
	return r
}

func (r Region) IsSupported() bool {
	return slices.Contains(Regions(), r.Canonical())
}

// KeyURL returns the signing-key endpoint for r, or "" if r is not supported.
func (r Region) KeyURL() string {
	c := r.Canonical()
	for _, rh := range regionHosts {
		if rh.region == c {
			return "https://" + rh.host + keyPath
		}
	}
	return ""
}

func (r Region) String() string { return string(r) }
