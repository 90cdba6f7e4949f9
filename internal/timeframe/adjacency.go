package timeframe

import "PatternScanner/internal/model"

// AdjacentPairs returns the index pairs (i, i+1) whose bars occupy
// consecutive calendar periods. Once thin periods can be dropped during
// aggregation, array adjacency no longer implies calendar adjacency, so
// pattern windows must come from this set only. Daily bars are treated as
// trivially adjacent.
func AdjacentPairs(bars []model.Bar, tf model.Timeframe) [][2]int {
	var pairs [][2]int
	for i := 0; i+1 < len(bars); i++ {
		if tf == model.Daily {
			pairs = append(pairs, [2]int{i, i + 1})
			continue
		}
		a := model.PeriodKeyFor(tf, bars[i].Date)
		b := model.PeriodKeyFor(tf, bars[i+1].Date)
		if Successive(a, b, tf) {
			pairs = append(pairs, [2]int{i, i + 1})
		}
	}
	return pairs
}

// Successive reports whether b is the immediate calendar successor of a.
// Weekly keys roll over from the final ISO week of a year (52 or 53) to week 1
// of the next; monthly keys roll over from December to January.
func Successive(a, b model.PeriodKey, tf model.Timeframe) bool {
	switch tf {
	case model.Weekly:
		if a.Year == b.Year && b.Period == a.Period+1 {
			return true
		}
		return b.Year == a.Year+1 && a.Period >= 52 && b.Period == 1
	case model.Monthly:
		if a.Year == b.Year && b.Period == a.Period+1 {
			return true
		}
		return b.Year == a.Year+1 && a.Period == 12 && b.Period == 1
	default:
		return true
	}
}
