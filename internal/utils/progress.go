package utils

import "github.com/schollz/progressbar/v3"

// Progress is the minimal progress-reporting surface consumed by long
// running loops, satisfied by *progressbar.ProgressBar.
type Progress interface {
	Add(num int) error
}

// NopProgress discards progress updates. Used when output is suppressed.
type NopProgress struct{}

func (NopProgress) Add(int) error { return nil }

// NewProgressBar creates a consistently styled progress bar.
//
// total < 0 switches to indeterminate spinner mode.
func NewProgressBar(total int, description string) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts,
			progressbar.OptionShowIts(),
		)
	}

	return progressbar.NewOptions(total, opts...)
}
