package util

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// Printer periodically refreshes a live terminal line with the contents
// of its Output. Used by the run driver to show training progress without
// scrolling the log.
type Printer struct {
	frequency time.Duration
	doneCh    chan struct{}

	writer *uilive.Writer
	out    *Output
}

func NewPrinter(frequency time.Duration) *Printer {
	return &Printer{
		frequency: frequency,
		doneCh:    make(chan struct{}),

		writer: uilive.New(),
		out:    NewOutput(),
	}
}

func (p *Printer) Output() *Output {
	return p.out
}

func (p *Printer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-p.doneCh:
				p.writer.Stop()
				return
			case <-ctx.Done():
				p.writer.Stop()
				return
			case <-time.After(p.frequency):
				fmt.Fprintln(p.writer, p.out.Get())
				p.writer.Flush()
			}
		}
	}()
}

func (p *Printer) Stop() {
	fmt.Fprintln(p.writer, p.out.Get())
	p.writer.Flush()
	close(p.doneCh)
}

// Output is the line shared between the run loop and the printer
// goroutine.
type Output struct {
	mu        sync.Mutex
	printable string
}

func NewOutput() *Output {
	return &Output{}
}

// Set the output line (blocking).
func (o *Output) Set(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.printable = s
}

// TrySet sets the output line unless the printer holds the lock.
func (o *Output) TrySet(s string) bool {
	if !o.mu.TryLock() {
		return false
	}
	defer o.mu.Unlock()
	o.printable = s
	return true
}

// Get the output line (blocking).
func (o *Output) Get() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.printable
}
