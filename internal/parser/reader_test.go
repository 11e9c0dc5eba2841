package parser

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readAll(t *testing.T, src string) ([]string, []int) {
	t.Helper()
	r := NewReader(strings.NewReader(src))
	var lines []string
	var ends []int
	for {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			return lines, ends
		}
		if err != nil {
			t.Fatal(err)
		}
		lines = append(lines, line)
		ends = append(ends, r.LineNumber())
	}
}

func TestReaderContinuations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		lines []string
		ends  []int
	}{
		{
			name:  "plain lines",
			input: "a\nb\n",
			lines: []string{"a", "b"},
			ends:  []int{1, 2},
		},
		{
			name:  "no trailing newline",
			input: "a\nb",
			lines: []string{"a", "b"},
			ends:  []int{1, 2},
		},
		{
			name:  "macro continuation",
			input: "SRCS = a.c \\\n\tb.c \\\n    c.c\nX = y\n",
			lines: []string{"SRCS = a.c  b.c  c.c", "X = y"},
			ends:  []int{3, 4},
		},
		{
			name:  "command continuation keeps backslash newline",
			input: "\tfor f in $(SRCS); do \\\n\t\techo $$f; \\\n\tdone\n",
			lines: []string{"\tfor f in $(SRCS); do \\\n\techo $$f; \\\ndone"},
			ends:  []int{3},
		},
		{
			name:  "escaped backslash is not a continuation",
			input: "A = c:\\\\\nB = d\n",
			lines: []string{"A = c:\\\\", "B = d"},
			ends:  []int{1, 2},
		},
		{
			name:  "crlf",
			input: "A = 1\r\nB = 2\r\n",
			lines: []string{"A = 1", "B = 2"},
			ends:  []int{1, 2},
		},
		{
			name:  "continuation at end of file",
			input: "A = 1 \\",
			lines: []string{"A = 1  "},
			ends:  []int{1},
		},
		{
			name:  "blank lines are counted",
			input: "\n\nA = 1\n",
			lines: []string{"", "", "A = 1"},
			ends:  []int{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, ends := readAll(t, tt.input)
			if diff := cmp.Diff(tt.lines, lines); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.ends, ends); diff != "" {
				t.Errorf("line numbers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReaderFoldedLength(t *testing.T) {
	physical := []string{"OBJS = main.o \\", "   util.o \\", "\t io.o"}
	lines, _ := readAll(t, strings.Join(physical, "\n")+"\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 logical line, got %d", len(lines))
	}

	var want strings.Builder
	for i, p := range physical {
		if i > 0 {
			p = strings.TrimLeft(p, " \t")
		}
		if i < len(physical)-1 {
			p = p[:len(p)-1] + " "
		}
		want.WriteString(p)
	}
	if len(lines[0]) != want.Len() {
		t.Errorf("length: want %d, got %d (%q)", want.Len(), len(lines[0]), lines[0])
	}
}
