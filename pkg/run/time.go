package run

// Timer selects which timing field is canonical for a category.
type Timer int

const (
	// TimerRTA is real time.
	TimerRTA Timer = 0

	// TimerLRT is load-removed real time.
	TimerLRT Timer = 1

	// TimerIGT is in-game time. Any value other than RTA/LRT behaves as IGT.
	TimerIGT Timer = 2
)

// IGTPenalty is added to in-game times when the category is real-time based,
// so IGT-only runs sort after every real-time run while keeping their
// relative order.
const IGTPenalty = 10_000_000.0

// ResolveTime picks the canonical time of a run.
//
// RTA/LRT categories prefer time, then timeWithLoads, then igt+IGTPenalty.
// IGT categories prefer igt, then time, then timeWithLoads.
// Returns ok=false when none of the fields is present.
func ResolveTime(timer Timer, time, timeWithLoads, igt *float64) (*float64, bool) {
	if timer == TimerRTA || timer == TimerLRT {
		switch {
		case time != nil:
			return float(*time), true
		case timeWithLoads != nil:
			return float(*timeWithLoads), true
		case igt != nil:
			return float(*igt + IGTPenalty), true
		}
		return nil, false
	}

	switch {
	case igt != nil:
		return float(*igt), true
	case time != nil:
		return float(*time), true
	case timeWithLoads != nil:
		return float(*timeWithLoads), true
	}
	return nil, false
}

func float(v float64) *float64 {
	return &v
}
