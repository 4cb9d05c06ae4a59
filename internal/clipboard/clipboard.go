// Package clipboard puts rendered prompts on the system clipboard, falling back to the
// terminal's OSC 52 escape sequence on headless or remote sessions.
package clipboard

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Method reports how text reached the clipboard
type Method string

const (
	MethodSystem Method = "system"
	MethodOSC52  Method = "osc52"
)

// ClipboardError is returned when no clipboard route is available
type ClipboardError struct {
	OS      string
	Message string
	Cause   error
}

func (e *ClipboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClipboardError) Unwrap() error { return e.Cause }

// NewClipboardError creates a ClipboardError with installation hints for the current OS
func NewClipboardError(cause error) *ClipboardError {
	var msg string
	switch runtime.GOOS {
	case "linux":
		msg = "no clipboard utility found. Install one of:\n" +
			"  • Ubuntu/Debian: sudo apt install xclip\n" +
			"  • Fedora/RHEL: sudo dnf install xclip\n" +
			"  • Arch: sudo pacman -S xclip\n" +
			"  • For Wayland: install wl-clipboard"
	case "darwin":
		msg = "pbcopy failed"
	case "windows":
		msg = "the Windows clipboard is not available"
	default:
		msg = fmt.Sprintf("clipboard not supported on %s", runtime.GOOS)
	}
	return &ClipboardError{OS: runtime.GOOS, Message: msg, Cause: cause}
}

// Copier writes text to the clipboard
type Copier struct {
	// Terminal receives the OSC 52 sequence when the system clipboard fails; nil disables it
	Terminal io.Writer
	// Getenv is consulted for TMUX/STY to wrap the sequence; defaults to os.Getenv
	Getenv func(string) string

	writeAll    func(string) error
	unsupported func() bool
}

// New returns a Copier that falls back to OSC 52 on stderr
func New() *Copier {
	return &Copier{Terminal: os.Stderr}
}

// Copy places text on the clipboard and reports which route was used
func (c *Copier) Copy(text string) (Method, error) {
	writeAll := c.writeAll
	if writeAll == nil {
		writeAll = clipboard.WriteAll
	}
	unsupported := c.unsupported
	if unsupported == nil {
		unsupported = func() bool { return clipboard.Unsupported }
	}

	var sysErr error
	if !unsupported() {
		if sysErr = writeAll(text); sysErr == nil {
			return MethodSystem, nil
		}
	}

	if c.Terminal == nil {
		return "", NewClipboardError(sysErr)
	}
	if _, err := c.sequence(text).WriteTo(c.Terminal); err != nil {
		return "", NewClipboardError(err)
	}
	return MethodOSC52, nil
}

func (c *Copier) sequence(text string) osc52.Sequence {
	getenv := c.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	seq := osc52.New(text)
	switch {
	case getenv("TMUX") != "":
		seq = seq.Tmux()
	case getenv("STY") != "":
		seq = seq.Screen()
	}
	return seq
}

// Copy copies text with the default Copier
func Copy(text string) error {
	_, err := New().Copy(text)
	return err
}

// IsClipboardAvailable reports whether a system clipboard utility was found
func IsClipboardAvailable() bool {
	return !clipboard.Unsupported
}
