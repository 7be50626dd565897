package main

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// progress adapts the client's progress callback to a terminal progress bar.
// The bar is created on the first update, once the total is known.
type progress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgress(out io.Writer) *progress {
	return &progress{out: out}
}

// Update moves the bar to current and shows message as its description.
func (p *progress) Update(current float64, total float64, message string) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(int(total),
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(message),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	p.bar.Describe(message)
	_ = p.bar.Set(int(current))
}

// Finish completes the bar if one was started.
func (p *progress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
