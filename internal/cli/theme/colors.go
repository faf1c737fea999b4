package theme

import "charm.land/lipgloss/v2"

var (
	ColorWhite = lipgloss.Color("#FFFFFF")
	ColorDim   = lipgloss.Color("#666666")
)

var (
	ColorAccent  = lipgloss.Color("#6C5CE7") // headers, region codes
	ColorValid   = lipgloss.Color("#16EC06") // verified deliveries
	ColorInvalid = lipgloss.Color("#FF0026") // rejected deliveries
	ColorWarn    = lipgloss.Color("#FFDE00") // key endpoint trouble
)
