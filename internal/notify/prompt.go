package notify

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

// Prompter asks for one line of input at a time.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	style   lipgloss.Style
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	r := lipgloss.NewRenderer(out)
	return &Prompter{
		scanner: bufio.NewScanner(in),
		out:     out,
		style:   r.NewStyle().Foreground(lipgloss.Color("63")).Bold(true),
	}
}

// Ask prints label and returns the trimmed answer. Empty answers are asked again.
func (p *Prompter) Ask(label string) (string, error) {
	for {
		fmt.Fprint(p.out, p.style.Render(label+": "))
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return "", errors.Wrap(err, "read input")
			}
			return "", io.ErrUnexpectedEOF
		}
		if answer := strings.TrimSpace(p.scanner.Text()); answer != "" {
			return answer, nil
		}
	}
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
