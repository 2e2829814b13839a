package feedback

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/roach88/isolate/internal/engine"
)

// Mode names a channel choice.
type Mode string

const (
	// ModeAuto uses Prompt on a terminal and Line otherwise.
	ModeAuto   Mode = "auto"
	ModePrompt Mode = "prompt"
	ModeLine   Mode = "line"
)

// ParseMode validates a mode name. An empty string means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModePrompt, ModeLine:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown prompt mode %q (want auto, prompt or line)", s)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New picks the channel for mode. In ModeAuto the interactive Prompt is
// used only when in is a terminal. A Prompt forced onto a non-terminal, or
// run with ACCESSIBLE set, uses huh's accessible mode.
func New(mode Mode, in *os.File, out io.Writer) engine.Feedback {
	terminal := IsTerminal(in)
	accessible := WithAccessible(!terminal || os.Getenv("ACCESSIBLE") != "")
	switch mode {
	case ModePrompt:
		return NewPrompt(in, out, accessible)
	case ModeLine:
		return NewLine(in, out)
	}
	if terminal {
		return NewPrompt(in, out, accessible)
	}
	return NewLine(in, out)
}
