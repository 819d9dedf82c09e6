package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"feed_triage/internal/model"
)

// lineSelector asks for a choice list on one line of input. An empty line
// keeps the preselected choices.
type lineSelector struct {
	in  *bufio.Scanner
	out io.Writer
}

func newLineSelector(in io.Reader, out io.Writer) *lineSelector {
	return &lineSelector{in: bufio.NewScanner(in), out: out}
}

func (s *lineSelector) Select(prompt string, choices []model.Choice) ([]string, error) {
	fmt.Fprintln(s.out, prompt)
	for i, c := range choices {
		mark := " "
		if c.Selected {
			mark = "x"
		}
		fmt.Fprintf(s.out, "  [%s] %2d. %s (%s)\n", mark, i+1, c.Label, c.Detail)
	}

	for {
		fmt.Fprint(s.out, "Numbers to keep (e.g. 1 3 4), \"all\", \"none\" or enter for the marked ones: ")
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return nil, fmt.Errorf("read selection: %w", err)
			}
			return preselected(choices), nil
		}
		picked, err := parseSelection(s.in.Text(), choices)
		if err == nil {
			return picked, nil
		}
		fmt.Fprintln(s.out, err)
	}
}

func parseSelection(line string, choices []model.Choice) ([]string, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return preselected(choices), nil
	}
	if len(fields) == 1 {
		switch strings.ToLower(fields[0]) {
		case "all":
			out := make([]string, len(choices))
			for i, c := range choices {
				out[i] = c.Label
			}
			return out, nil
		case "none":
			return []string{}, nil
		}
	}

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > len(choices) {
			return nil, fmt.Errorf("%q is not a choice between 1 and %d", f, len(choices))
		}
		out = append(out, choices[n-1].Label)
	}
	return out, nil
}

func preselected(choices []model.Choice) []string {
	var out []string
	for _, c := range choices {
		if c.Selected {
			out = append(out, c.Label)
		}
	}
	return out
}
