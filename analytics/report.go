package analytics

import (
	"sort"
)

// MeanPopulation averages Population over the rows with Year in [from, to].
// ok is false when no row falls in the range.
func MeanPopulation(pop []PopulationRecord, from, to int) (mean float64, ok bool) {
	var sum float64
	var n int
	for _, p := range pop {
		if p.Year < from || p.Year > to {
			continue
		}
		sum += float64(p.Population)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// BestYear is the year in which a series had its largest summed value.
type BestYear struct {
	SeriesID string
	Year     int
	Value    float64
}

// BestYears sums values per (series, year), picks each series' year with the
// largest sum, and returns the first n of those ordered by series id. Ties
// go to the earliest year. n <= 0 returns every series.
func BestYears(obs []Observation, n int) []BestYear {
	sums := make(map[string]map[int]float64)
	for _, o := range obs {
		years, ok := sums[o.SeriesID]
		if !ok {
			years = make(map[int]float64)
			sums[o.SeriesID] = years
		}
		years[o.Year] += o.Value
	}

	ids := make([]string, 0, len(sums))
	for id := range sums {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}

	best := make([]BestYear, 0, len(ids))
	for _, id := range ids {
		years := make([]int, 0, len(sums[id]))
		for y := range sums[id] {
			years = append(years, y)
		}
		sort.Ints(years)
		b := BestYear{SeriesID: id, Year: years[0], Value: sums[id][years[0]]}
		for _, y := range years[1:] {
			if v := sums[id][y]; v > b.Value {
				b.Year, b.Value = y, v
			}
		}
		best = append(best, b)
	}
	return best
}

// JoinedRow is a time-series observation paired with that year's
// population.
type JoinedRow struct {
	SeriesID   string
	Year       int
	Period     string
	Value      float64
	Population int64
}

// JoinSeriesPopulation keeps the observations of one series and period and
// inner joins them with the population rows of the same year. Rows come out
// in observation order, then population order.
func JoinSeriesPopulation(obs []Observation, pop []PopulationRecord, seriesID, period string) []JoinedRow {
	byYear := make(map[int][]PopulationRecord)
	for _, p := range pop {
		byYear[p.Year] = append(byYear[p.Year], p)
	}
	var rows []JoinedRow
	for _, o := range obs {
		if o.SeriesID != seriesID || o.Period != period {
			continue
		}
		for _, p := range byYear[o.Year] {
			rows = append(rows, JoinedRow{
				SeriesID:   o.SeriesID,
				Year:       o.Year,
				Period:     o.Period,
				Value:      o.Value,
				Population: p.Population,
			})
		}
	}
	return rows
}
