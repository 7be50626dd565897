package writer

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dataset/internal/frame"
	"github.com/rxtech-lab/argo-dataset/internal/types"
)

func day(d int) time.Time {
	return time.Date(2021, 10, d, 0, 0, 0, 0, time.UTC)
}

// sampleFrame has two trading days; DGS10 is missing on the first.
func sampleFrame() *frame.Frame {
	sp := types.NewSeries("SP500", []types.Observation{
		{Date: day(14), Value: optional.Some(4438.26)},
		{Date: day(15), Value: optional.Some(4471.37)},
	})
	rates := types.NewSeries("DGS10", []types.Observation{
		{Date: day(14), Value: optional.None[float64]()},
		{Date: day(15), Value: optional.Some(1.59)},
	})

	f, err := frame.Join(frame.FromSeries(sp), frame.FromSeries(rates))
	if err != nil {
		panic(err)
	}

	return f
}
