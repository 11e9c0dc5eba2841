package parser

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Reader folds backslash-continued physical lines into logical lines.
//
// Outside recipes an escaped newline becomes a single space and the
// leading blanks of the next line are dropped. Inside a recipe (a run that
// starts with a tab) the backslash and newline are kept and only one
// leading tab is removed from each continuation line.
type Reader struct {
	r      *bufio.Reader
	lineNo int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// LineNumber returns the number of physical lines consumed so far.
func (r *Reader) LineNumber() int { return r.lineNo }

// ReadLine returns the next logical line without its terminating
// newline. It returns io.EOF when no input remains.
func (r *Reader) ReadLine() (string, error) {
	var (
		b         strings.Builder
		escaped   bool
		inCommand bool
	)
	for {
		line, err := r.physical()
		if err != nil {
			if errors.Is(err, io.EOF) && escaped {
				// The file ended on a continuation.
				return b.String(), nil
			}
			return "", err
		}

		switch {
		case escaped && inCommand:
			line = strings.TrimPrefix(line, "\t")
		case escaped:
			line = strings.TrimLeft(line, " \t\f\v")
		}

		if !IsEscapedLine(line) {
			b.WriteString(line)
			return b.String(), nil
		}

		if !escaped && IsCommand(line) {
			inCommand = true
		}
		escaped = true
		if inCommand {
			b.WriteString(line)
			b.WriteByte('\n')
		} else {
			b.WriteString(line[:len(line)-1])
			b.WriteByte(' ')
		}
	}
}

// physical reads one raw line, dropping "\n" or "\r\n".
func (r *Reader) physical() (string, error) {
	line, err := r.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) || line == "" {
			return "", err
		}
	}
	r.lineNo++
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
