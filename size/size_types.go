package size

// Mode selects how a raw unit count is rounded before submission
type Mode uint8

const (
	// ModeRound rounds to the nearest whole unit, ties to even
	ModeRound Mode = iota
	// ModeFloor always rounds down, the conservative choice for markets
	// where an extra unit cannot be afforded
	ModeFloor
)
