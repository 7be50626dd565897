package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type SeriesTestSuite struct {
	suite.Suite
}

func TestSeriesSuite(t *testing.T) {
	suite.Run(t, new(SeriesTestSuite))
}

func day(d int) time.Time {
	return time.Date(2021, 10, d, 0, 0, 0, 0, time.UTC)
}

func (suite *SeriesTestSuite) TestDateTruncates() {
	ny, err := time.LoadLocation("America/New_York")
	suite.Require().NoError(err)

	// 21:00 in New York is already the next day in UTC, the calendar date follows the location.
	t := time.Date(2021, 10, 14, 21, 0, 0, 0, ny)
	suite.Equal(day(14), Date(t))
}

func (suite *SeriesTestSuite) TestNewSeriesSortsAndDeduplicates() {
	series := NewSeries("DGS10", []Observation{
		{Date: day(15), Value: optional.Some(1.59)},
		{Date: day(13), Value: optional.Some(1.55)},
		{Date: day(14).Add(5 * time.Hour), Value: optional.None[float64]()},
		{Date: day(14), Value: optional.Some(1.52)},
	})

	suite.Equal("DGS10", series.Name)
	suite.Require().Len(series.Observations, 3)
	suite.Equal(day(13), series.Observations[0].Date)
	suite.Equal(day(14), series.Observations[1].Date)
	suite.Equal(1.52, series.Observations[1].Value.Unwrap(), "last observation for a date wins")
	suite.Equal(day(15), series.Observations[2].Date)
}

func (suite *SeriesTestSuite) TestBetweenIsInclusive() {
	series := NewSeries("DAAA", []Observation{
		{Date: day(11), Value: optional.Some(2.5)},
		{Date: day(12), Value: optional.Some(2.6)},
		{Date: day(13), Value: optional.Some(2.7)},
		{Date: day(14), Value: optional.Some(2.8)},
	})

	kept := series.Between(day(12), day(13).Add(23*time.Hour))

	suite.Require().Len(kept.Observations, 2)
	suite.Equal(day(12), kept.Observations[0].Date)
	suite.Equal(day(13), kept.Observations[1].Date)
	suite.Len(series.Observations, 4, "original is untouched")
}

func (suite *SeriesTestSuite) TestValidCountsPresentValues() {
	series := NewSeries("DCOILWTICO", []Observation{
		{Date: day(11), Value: optional.Some(80.5)},
		{Date: day(12), Value: optional.None[float64]()},
		{Date: day(13), Value: optional.Some(81.0)},
	})

	suite.Equal(3, series.Len())
	suite.Equal(2, series.Valid())
}

func (suite *SeriesTestSuite) TestRenamed() {
	series := NewSeries("^GSPC", []Observation{{Date: day(11), Value: optional.Some(4361.19)}})

	renamed := series.Renamed("SP500")

	suite.Equal("SP500", renamed.Name)
	suite.Equal("^GSPC", series.Name)
	suite.Equal(series.Observations, renamed.Observations)
}
