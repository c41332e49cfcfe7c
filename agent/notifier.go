package main

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Notifier shows short messages to the user running the agent.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// ConsoleNotifier prints info messages to out and errors to errOut.
type ConsoleNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

func NewConsoleNotifier(out, errOut io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &ConsoleNotifier{out: out, errOut: errOut}
}

func (n *ConsoleNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "[gitclock] %s\n", msg)
}

func (n *ConsoleNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.errOut, "[gitclock] error: %s\n", msg)
}
