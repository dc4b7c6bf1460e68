package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// countdown renders the pacing wait as a row of dots with a number every ten
// seconds, wrapping every fifty.
type countdown struct {
	w     io.Writer
	total int
}

func newCountdown(w io.Writer) *countdown {
	return &countdown{w: w}
}

func (c *countdown) WaitStarted(total time.Duration) {
	c.total = int((total + time.Second - 1) / time.Second)
	_, _ = fmt.Fprintf(c.w, "Waiting %s before next AP: ", total)
}

func (c *countdown) Tick(elapsed int) {
	mark := "."
	if elapsed%10 == 0 {
		mark = strconv.Itoa(elapsed)
	}
	_, _ = io.WriteString(c.w, mark)
	if elapsed%50 == 0 && elapsed < c.total {
		_, _ = io.WriteString(c.w, "\n          ")
	}
}

func (c *countdown) WaitInterrupted() {
	_, _ = io.WriteString(c.w, " [Interrupted]\n")
}

func (c *countdown) WaitFinished() {
	_, _ = io.WriteString(c.w, "\n")
}
