// Package diff produces unified diffs between two versions of a text, used
// to compare makefile source with its re-rendered directive tree.
package diff

import (
	"fmt"
	"strings"
)

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Options labels the two sides of a diff.
type Options struct {
	OldLabel string // Defaults to "a".
	NewLabel string // Defaults to "b".
	Context  int    // Zero selects DefaultContext; negative shows none.
}

// Unified returns the unified diff turning oldText into newText, or "" when
// they are identical. A final line without a newline is marked the way
// diff(1) marks it.
func Unified(oldText, newText string, opts Options) string {
	if oldText == newText {
		return ""
	}
	if opts.OldLabel == "" {
		opts.OldLabel = "a"
	}
	if opts.NewLabel == "" {
		opts.NewLabel = "b"
	}
	switch {
	case opts.Context == 0:
		opts.Context = DefaultContext
	case opts.Context < 0:
		opts.Context = 0
	}

	s := &script{old: splitLines(oldText), new: splitLines(newText)}
	s.compute()
	hunks := s.hunks(opts.Context)
	if len(hunks) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", opts.OldLabel)
	fmt.Fprintf(&b, "+++ %s\n", opts.NewLabel)
	for _, h := range hunks {
		s.write(&b, h)
	}
	return b.String()
}

// File is Unified with a/ and b/ labels for one path.
func File(path, oldText, newText string) string {
	return Unified(oldText, newText, Options{
		OldLabel: "a/" + path,
		NewLabel: "b/" + path,
	})
}

// splitLines splits text after each newline. An empty string has no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

type op int

const (
	opKeep op = iota
	opInsert
	opDelete
)

// step is one line of the edit script. Indexes are -1 on the side the line
// is absent from.
type step struct {
	op       op
	from, to int
}

type script struct {
	old, new []string
	steps    []step
}

// compute finds a shortest edit script with the Myers greedy algorithm.
func (s *script) compute() {
	n, m := len(s.old), len(s.new)
	total := n + m
	if total == 0 {
		return
	}

	// frontier[k+total] is the furthest x reached on diagonal k = x - y.
	frontier := make([]int, 2*total+1)
	var history [][]int

	for d := 0; d <= total; d++ {
		history = append(history, append([]int(nil), frontier...))
		for k := -d; k <= d; k += 2 {
			x := frontier[k+1+total]
			if !down(frontier, k, d, total) {
				x = frontier[k-1+total] + 1
			}
			y := x - k
			for x < n && y < m && s.old[x] == s.new[y] {
				x, y = x+1, y+1
			}
			frontier[k+total] = x
			if x >= n && y >= m {
				s.trace(history, d, total)
				return
			}
		}
	}
}

// down reports whether diagonal k is best reached by an insertion.
func down(frontier []int, k, d, offset int) bool {
	return k == -d || (k != d && frontier[k-1+offset] < frontier[k+1+offset])
}

// trace walks the saved frontiers back from the end to recover the steps.
func (s *script) trace(history [][]int, d, offset int) {
	x, y := len(s.old), len(s.new)
	var rev []step
	keep := func(px, py int) {
		for x > px && y > py {
			x, y = x-1, y-1
			rev = append(rev, step{opKeep, x, y})
		}
	}

	for ; d > 0; d-- {
		frontier := history[d]
		k := x - y
		prev := k - 1
		if down(frontier, k, d, offset) {
			prev = k + 1
		}
		px := frontier[prev+offset]
		keep(px, px-prev)

		if prev == k+1 {
			y--
			rev = append(rev, step{opInsert, -1, y})
		} else {
			x--
			rev = append(rev, step{opDelete, x, -1})
		}
	}
	keep(0, 0)

	s.steps = make([]step, len(rev))
	for i, st := range rev {
		s.steps[len(rev)-1-i] = st
	}
}

// hunk is a window [lo, hi] of steps.
type hunk struct{ lo, hi int }

// hunks groups changed steps whose context windows touch.
func (s *script) hunks(context int) []hunk {
	var out []hunk
	for i, st := range s.steps {
		if st.op == opKeep {
			continue
		}
		lo := max(i-context, 0)
		hi := min(i+context, len(s.steps)-1)
		if n := len(out); n > 0 && lo <= out[n-1].hi+1 {
			out[n-1].hi = hi
			continue
		}
		out = append(out, hunk{lo, hi})
	}
	return out
}

func (s *script) write(b *strings.Builder, h hunk) {
	var oldBefore, newBefore int
	for _, st := range s.steps[:h.lo] {
		if st.from >= 0 {
			oldBefore++
		}
		if st.to >= 0 {
			newBefore++
		}
	}

	steps := s.steps[h.lo : h.hi+1]
	var oldCount, newCount int
	for _, st := range steps {
		if st.from >= 0 {
			oldCount++
		}
		if st.to >= 0 {
			newCount++
		}
	}
	fmt.Fprintf(b, "@@ -%s +%s @@\n", hunkRange(oldBefore, oldCount), hunkRange(newBefore, newCount))

	for _, st := range steps {
		switch st.op {
		case opKeep:
			writeLine(b, ' ', s.old[st.from])
		case opDelete:
			writeLine(b, '-', s.old[st.from])
		case opInsert:
			writeLine(b, '+', s.new[st.to])
		}
	}
}

// hunkRange formats the "start,count" of one side, where before is the
// number of lines preceding the hunk. An empty range names the line before
// it.
func hunkRange(before, count int) string {
	switch count {
	case 0:
		return fmt.Sprintf("%d,0", before)
	case 1:
		return fmt.Sprint(before + 1)
	default:
		return fmt.Sprintf("%d,%d", before+1, count)
	}
}

func writeLine(b *strings.Builder, prefix byte, line string) {
	b.WriteByte(prefix)
	b.WriteString(line)
	if !strings.HasSuffix(line, "\n") {
		b.WriteString("\n\\ No newline at end of file\n")
	}
}
