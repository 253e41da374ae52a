package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned when the user declines a confirmation prompt.
var ErrAborted = errors.New("aborted")

// Console prints status messages and asks questions.
type Console struct {
	out io.Writer
	in  *bufio.Reader

	// mu serializes writes.
	mu sync.Mutex

	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	danger  lipgloss.Style
	prompt  lipgloss.Style
}

// New returns a Console writing to out and reading answers from in.
func New(out io.Writer, in io.Reader) *Console {
	r := lipgloss.NewRenderer(out)

	if in == nil {
		in = strings.NewReader("")
	}

	return &Console{
		out:     out,
		in:      bufio.NewReader(in),
		info:    r.NewStyle().Foreground(lipgloss.Color("6")),
		success: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		danger:  r.NewStyle().Foreground(lipgloss.Color("1")),
		prompt:  r.NewStyle().Bold(true),
	}
}

// Infof prints a cyan status line.
func (c *Console) Infof(format string, args ...any) {
	c.println(c.info, fmt.Sprintf(format, args...))
}

// Successf prints a green status line.
func (c *Console) Successf(format string, args ...any) {
	c.println(c.success, fmt.Sprintf(format, args...))
}

// Warnf prints a yellow status line.
func (c *Console) Warnf(format string, args ...any) {
	c.println(c.warn, fmt.Sprintf(format, args...))
}

// Removedf prints a red status line, used for deletions.
func (c *Console) Removedf(format string, args ...any) {
	c.println(c.danger, fmt.Sprintf(format, args...))
}

// Start prints a cyan label without a trailing newline; marks follow it.
func (c *Console) Start(label string) {
	c.write(c.info.Render(label) + " ")
}

// Mark prints a single progress symbol on the current line.
func (c *Console) Mark(symbol string) {
	c.write(c.info.Render(symbol))
}

// EndLine terminates a line of progress marks.
func (c *Console) EndLine() {
	c.write("\n")
}

// Confirm asks a yes/no question. An empty answer picks defaultYes.
// Declining, or running out of input, returns ErrAborted.
func (c *Console) Confirm(message string, defaultYes bool) error {
	choices := "[y/N]"
	if defaultYes {
		choices = "[Y/n]"
	}

	for {
		c.write(c.prompt.Render(message) + " " + choices + ": ")

		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			c.write("\n")
			return ErrAborted
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			if defaultYes {
				return nil
			}

			return ErrAborted
		case "y", "yes":
			return nil
		case "n", "no":
			return ErrAborted
		default:
			c.write("Error: invalid input\n")
		}
	}
}

func (c *Console) println(style lipgloss.Style, text string) {
	c.write(style.Render(text) + "\n")
}

func (c *Console) write(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = io.WriteString(c.out, text)
}
