package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dataset/internal/types"
)

// DataGenerator generates realistic daily series for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how daily data is generated.
type GeneratorConfig struct {
	// Symbol is the ticker or series ID (e.g., "GE", "DGS10")
	Symbol string
	// StartDate is the first calendar day considered
	StartDate time.Time
	// Days is the number of calendar days covered
	Days int
	// InitialValue is the starting price or rate
	InitialValue float64
	// Volatility controls day to day movement (0.01 = 1%)
	Volatility float64
	// Trend is the drift factor across the whole range
	Trend float64
	// MissingRate is the probability that a published day has no value (0.0 to 1.0)
	MissingRate float64
	// Holidays are weekdays without an observation at all
	Holidays []time.Time
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "TEST",
		StartDate:    time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:         365,
		InitialValue: 100.0,
		Volatility:   0.01,
		Trend:        0.0,
		MissingRate:  0.0,
		Holidays:     nil,
	}
}

// GenerateBars creates daily OHLCV bars for weekdays that are not holidays.
// Prices follow a geometric Brownian motion.
func (g *DataGenerator) GenerateBars(config GeneratorConfig) []types.MarketData {
	var bars []types.MarketData

	price := config.InitialValue

	for _, day := range tradingDays(config) {
		open := price
		close := open * (1 + config.Volatility*g.normal() + config.Trend/float64(config.Days))

		if close <= 0 {
			close = open * 0.99
		}

		high := math.Max(open, close) * (1 + math.Abs(g.rng.Float64()*config.Volatility*0.5))
		low := math.Min(open, close) * (1 - math.Abs(g.rng.Float64()*config.Volatility*0.5))

		bars = append(bars, types.MarketData{
			Id:     "",
			Symbol: config.Symbol,
			Time:   day.Add(16 * time.Hour),
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(1e6*(0.5+g.rng.Float64()), 0),
		})

		price = close
	}

	return bars
}

// GenerateSeries creates a rate-like series published on weekdays that are not
// holidays. A MissingRate share of the published days carries no value, the way
// FRED marks days without a quote.
func (g *DataGenerator) GenerateSeries(config GeneratorConfig) types.Series {
	var observations []types.Observation

	value := config.InitialValue

	for _, day := range tradingDays(config) {
		value += config.Volatility * g.normal()

		if g.rng.Float64() < config.MissingRate {
			observations = append(observations, types.Observation{Date: day, Value: optional.None[float64]()})

			continue
		}

		observations = append(observations, types.Observation{Date: day, Value: optional.Some(roundToDecimals(value, 2))})
	}

	return types.NewSeries(config.Symbol, observations)
}

// normal draws from the standard normal distribution using the Box-Muller transform.
func (g *DataGenerator) normal() float64 {
	u1 := 1 - g.rng.Float64()
	u2 := g.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func tradingDays(config GeneratorConfig) []time.Time {
	holidays := make(map[time.Time]bool, len(config.Holidays))
	for _, h := range config.Holidays {
		holidays[types.Date(h)] = true
	}

	var days []time.Time

	start := types.Date(config.StartDate)
	for i := 0; i < config.Days; i++ {
		day := start.AddDate(0, 0, i)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday || holidays[day] {
			continue
		}

		days = append(days, day)
	}

	return days
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
