package entity

const (
	OutcomeOngoing = "ongoing"
	OutcomeWin     = "win"
	OutcomeDraw    = "draw"
)

type Outcome struct {
	Kind   string `json:"kind"`
	Winner string `json:"winner,omitempty"`
}

func Ongoing() Outcome {
	return Outcome{Kind: OutcomeOngoing}
}

func Win(mark string) Outcome {
	return Outcome{Kind: OutcomeWin, Winner: mark}
}

func Draw() Outcome {
	return Outcome{Kind: OutcomeDraw}
}

func (that Outcome) IsTerminal() bool {
	return that.Kind == OutcomeWin || that.Kind == OutcomeDraw
}

// Message is the text shown to players when the round ends.
func (that Outcome) Message() string {
	switch that.Kind {
	case OutcomeWin:
		return that.Winner + " won!"
	case OutcomeDraw:
		return "Draw!"
	default:
		return ""
	}
}
