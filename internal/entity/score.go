package entity

// Score counts wins per symbol for the lifetime of the process.
type Score struct {
	X int `json:"x"`
	O int `json:"o"`
}

func (that *Score) Inc(mark string) {
	switch mark {
	case PlayerX:
		that.X++
	case PlayerO:
		that.O++
	}
}

// Snapshot is a read-only copy of the match published to observers.
type Snapshot struct {
	Match    Match     `json:"match"`
	Sessions []Session `json:"sessions"`
	Score    *Score    `json:"score,omitempty"`
}
