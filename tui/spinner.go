package tui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DefaultSpinnerInterval is the frame interval used unless WithInterval is given.
const DefaultSpinnerInterval = 100 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type spinnerWriter struct {
	writer   io.Writer
	interval time.Duration
	err      error
}

func (sw *spinnerWriter) printf(format string, args ...any) {
	if sw.err != nil {
		return
	}

	_, sw.err = fmt.Fprintf(sw.writer, format, args...)
}

// SimulationMessage is the spinner text shown while a timeline is generated
// and replayed. Counts of zero fall back to a generic message.
func SimulationMessage(events, policies int) string {
	if events <= 0 || policies <= 0 {
		return "Simulating timeline..."
	}
	noun := "policies"
	if policies == 1 {
		noun = "policy"
	}
	return fmt.Sprintf("Replaying %s events under %d %s...", FormatNumber(events), policies, noun)
}

// SpinnerOption configures RunWithSpinner.
type SpinnerOption func(*spinnerWriter)

// WithWriter sets the spinner destination. Non-terminal writers get no
// animation.
func WithWriter(w io.Writer) SpinnerOption {
	return func(c *spinnerWriter) {
		c.writer = w
	}
}

// WithInterval sets the frame interval.
func WithInterval(d time.Duration) SpinnerOption {
	return func(c *spinnerWriter) {
		c.interval = d
	}
}

// RunWithSpinner runs fn while animating message on a terminal. On any
// other writer fn runs silently, so piped simulate output stays clean.
func RunWithSpinner[T any](message string, fn func() (T, error), opts ...SpinnerOption) (T, error) {
	writer := spinnerWriter{
		writer:   os.Stderr,
		interval: DefaultSpinnerInterval,
	}

	for _, opt := range opts {
		opt(&writer)
	}

	if !IsWriterTerminal(writer.writer) {
		return fn()
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		i := 0
		for {
			select {
			case <-stop:
				writer.printf("\033[2K\r")
				return
			default:
				frame := spinnerFrames[i%len(spinnerFrames)]
				writer.printf("\033[2K\r%s%s%s %s", Cyan, frame, Reset, message)
				i++
				time.Sleep(writer.interval)
			}
		}
	}()

	result, err := fn()

	close(stop)
	wg.Wait()

	if err != nil {
		return result, err
	}

	return result, writer.err
}
