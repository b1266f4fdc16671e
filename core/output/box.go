package output

import (
	"fmt"
	"io"
	"strings"
)

const (
	labelWidth = 50
	valueWidth = 20
	innerWidth = labelWidth + valueWidth + 3
)

// box draws the bordered summary tables used by every cli renderer
type box struct {
	w io.Writer
}

func newBox(w io.Writer) *box {
	b := &box{w: w}
	fmt.Fprintln(w, "┌"+strings.Repeat("─", innerWidth)+"┐")
	return b
}

func (b *box) title(s string) {
	pad := innerWidth - len(s)
	left := pad / 2
	fmt.Fprintf(b.w, "│%s%s%s│\n", strings.Repeat(" ", left), s, strings.Repeat(" ", pad-left))
	b.rule()
}

func (b *box) rule() {
	fmt.Fprintln(b.w, "├"+strings.Repeat("─", innerWidth)+"┤")
}

func (b *box) section(name string) {
	b.rule()
	b.row(name, "")
}

func (b *box) row(label, value string) {
	fmt.Fprintf(b.w, "│ %-*s %*s │\n", labelWidth, truncate(label, labelWidth), valueWidth, truncate(value, valueWidth))
}

func (b *box) end() {
	fmt.Fprintln(b.w, "└"+strings.Repeat("─", innerWidth)+"┘")
}

func (b *box) warnings(warnings []string) error {
	if len(warnings) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(b.w, "\nWarnings (%d):\n", len(warnings))
	for _, w := range warnings {
		if _, werr := fmt.Fprintf(b.w, "  ! %s\n", w); werr != nil {
			err = werr
		}
	}
	return err
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
