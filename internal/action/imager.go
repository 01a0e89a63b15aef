package action

import "fmt"

// Imager identifies the external imaging tool an action targets. The tool
// is resolved once at action construction; methods branch on the value,
// never on raw configuration strings.
type Imager string

const (
	ImagerAWImager Imager = "awimager"
	ImagerCASA     Imager = "casapy"
	ImagerWSClean  Imager = "wsclean"
)

// ParseImager maps a configuration value to an Imager.
func ParseImager(value string) (Imager, error) {
	switch Imager(value) {
	case ImagerAWImager, ImagerCASA, ImagerWSClean:
		return Imager(value), nil
	default:
		return "", fmt.Errorf("unknown imager %q", value)
	}
}
