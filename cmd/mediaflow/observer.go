package main

import (
	"fmt"
	"io"
	"sync"

	"mediaflow/internal/chat"
)

// transcriptPrinter renders each message as it is appended to the history.
type transcriptPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
}

func newTranscriptPrinter(out io.Writer) *transcriptPrinter {
	return &transcriptPrinter{out: out, colorize: shouldColorize(out)}
}

func (p *transcriptPrinter) Observe(msg chat.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	heading := "# " + chat.DisplayName(msg.Author)
	if p.colorize {
		color := ansiBlue
		if msg.Failed() {
			color = ansiRed
		}
		heading = ansiBold + color + heading + ansiReset
	}
	fmt.Fprintln(p.out, heading)
	fmt.Fprintln(p.out, msg.Content)
	fmt.Fprintln(p.out)
}
