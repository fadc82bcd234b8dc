package game

// Mode identifies one of the fixed battle modes. The set is closed: queues,
// durations and player counts are all keyed off this enum.
type Mode string

const (
	ModeQuickMatch Mode = "quick_match"
	ModeRanked     Mode = "ranked"
	ModeTournament Mode = "tournament"
	ModePractice   Mode = "practice"
	ModeFreeForAll Mode = "free_for_all"
)

// AllModes is the sweep/iteration order for the matchmaker.
var AllModes = []Mode{ModeQuickMatch, ModeRanked, ModeTournament, ModePractice, ModeFreeForAll}

// Duration returns the mode's battle length in seconds.
func (m Mode) Duration() float64 {
	switch m {
	case ModeQuickMatch:
		return 180
	case ModeRanked:
		return 300
	case ModeTournament:
		return 420
	case ModePractice:
		return 600
	case ModeFreeForAll:
		return 240
	default:
		return 0
	}
}

// RequiredPlayers returns how many queued players a mode needs before a
// match attempt is made.
func (m Mode) RequiredPlayers() int {
	switch m {
	case ModeFreeForAll:
		return 4
	case ModeTournament:
		return 8
	case ModeQuickMatch, ModeRanked, ModePractice:
		return 2
	default:
		return 0
	}
}

func (m Mode) Valid() bool {
	return m.RequiredPlayers() > 0
}

// ParseMode maps a wire string onto the mode enum.
func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	if m.Valid() {
		return m, true
	}
	return "", false
}
