// Package prompt implements the operator confirmation port on the
// terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mitaka/clubsync/internal/domain"
)

// Ensure Confirmer implements domain.Confirmer interface.
var _ domain.Confirmer = (*Confirmer)(nil)

var warnStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("11")). // yellow
	Bold(true)

// Confirmer asks yes/no questions on the terminal. Anything other
// than an explicit yes is a no.
type Confirmer struct {
	in  io.Reader
	out io.Writer
}

// New creates a Confirmer reading answers from in and writing prompts
// to out.
func New(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{in: in, out: out}
}

// Confirm prints the prompt and reads a single-line answer.
func (c *Confirmer) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprintf(c.out, "%s [y/N] ", warnStyle.Render(prompt)); err != nil {
		return false, err
	}

	answer, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
