package tui

import (
	"fmt"
	"io"
)

// tableWriter wraps an io.Writer for the table presenter. The first write
// error is kept and every later write is skipped, so render methods can
// emit a whole decision or run summary and check Err once.
type tableWriter struct {
	w   io.Writer
	err error
}

func (tw *tableWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

func (tw *tableWriter) println(args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintln(tw.w, args...)
}

// section writes a styled heading with a rule of the given width below it.
func (tw *tableWriter) section(heading string, width int) {
	tw.printf("%s\n", heading)
	tw.println(HorizontalLine(width))
}

// reasonCodes lists decision reason codes, one per line, in the order the
// evaluator produced them.
func (tw *tableWriter) reasonCodes(codes []string) {
	if len(codes) == 0 {
		tw.println("  (none)")
		return
	}
	for _, code := range codes {
		tw.printf("  - %s\n", code)
	}
}

// issues lists policy validation issues as "path: message".
func (tw *tableWriter) issues(list []IssueView) {
	for _, issue := range list {
		tw.printf("  - %s: %s\n", issue.Path, issue.Message)
	}
}

// Err returns the first error encountered during any write, or nil.
func (tw *tableWriter) Err() error {
	return tw.err
}
