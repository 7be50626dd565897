package types

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
)

// DateLayout is the layout used for calendar dates throughout the dataset.
const DateLayout = "2006-01-02"

// Observation is the value of a series on one calendar date.
// Value is None when the provider reported the date without a number.
type Observation struct {
	Date  time.Time
	Value optional.Option[float64]
}

// Series is a named daily time series keyed by calendar date.
// Observations are sorted ascending and hold at most one entry per date.
type Series struct {
	Name         string
	Observations []Observation
}

// Date truncates t to its calendar date at 00:00 UTC, using t's own location
// to decide which day it falls on.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewSeries builds a Series from unordered observations. Dates are normalized to
// calendar days; when a date appears more than once, the last observation wins.
func NewSeries(name string, observations []Observation) Series {
	byDate := make(map[time.Time]int, len(observations))
	out := make([]Observation, 0, len(observations))

	for _, obs := range observations {
		obs.Date = Date(obs.Date)
		if idx, ok := byDate[obs.Date]; ok {
			out[idx] = obs

			continue
		}

		byDate[obs.Date] = len(out)
		out = append(out, obs)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	return Series{Name: name, Observations: out}
}

// CloseSeries projects bars onto their closing price.
func CloseSeries(name string, bars []MarketData) Series {
	observations := make([]Observation, 0, len(bars))
	for _, bar := range bars {
		observations = append(observations, Observation{
			Date:  bar.Time,
			Value: optional.Some(bar.Close),
		})
	}

	return NewSeries(name, observations)
}

// Between returns the observations whose date lies in [start, end], both inclusive.
func (s Series) Between(start, end time.Time) Series {
	start, end = Date(start), Date(end)

	kept := make([]Observation, 0, len(s.Observations))
	for _, obs := range s.Observations {
		if obs.Date.Before(start) || obs.Date.After(end) {
			continue
		}

		kept = append(kept, obs)
	}

	return Series{Name: s.Name, Observations: kept}
}

// Renamed returns a copy of the series carrying a different name.
func (s Series) Renamed(name string) Series {
	s.Name = name

	return s
}

// Len returns the number of observations, including those without a value.
func (s Series) Len() int {
	return len(s.Observations)
}

// Valid returns the number of observations that carry a value.
func (s Series) Valid() int {
	count := 0

	for _, obs := range s.Observations {
		if obs.Value.IsSome() {
			count++
		}
	}

	return count
}
