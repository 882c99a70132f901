// Package bar renders replay progress on the terminal.
package bar

import (
	"io"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

// New returns a bar counting frames on the ANSI-aware stdout.
func New(frames int, text string) *progressbar.ProgressBar {
	return NewWriter(ansi.NewAnsiStdout(), frames, text)
}

// NewWriter returns a bar counting frames written to w.
func NewWriter(w io.Writer, frames int, text string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		frames,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription("[cyan]"+text+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
