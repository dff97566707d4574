package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/dropletctl/pkg/errors"
)

// ClearProgress clears the current line of the terminal, so that the output
// of a ProgressPrinter can be overwritten.
const ClearProgress = "\r\033[K"

// Mocked for unit testing.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
)

// HandleFatalError handles errors that are severe enough to terminate the
// program. Friendly errors are printed verbatim, and all other errors are
// logged with their full context.
func HandleFatalError(err error) {
	if msg, ok := errors.GetPrintableMessage(err); ok {
		fmt.Fprintln(stderr, msg)
	} else {
		log.WithError(err).Error("Fatal error")
	}
	exit(1)
}

// HandlePanic logs any panics before re-panicking. It should be deferred at
// the start of every goroutine.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("panic", r).Error("Unexpected panic")
		panic(r)
	}
}

// ProgressPrinter prints a message followed by a growing line of dots until
// it's stopped.
type ProgressPrinter struct {
	out  io.Writer
	msg  string
	stop chan string
	done chan struct{}
	once sync.Once
}

// NewProgressPrinter returns a ProgressPrinter that writes to `out`. Start it
// with `go pp.Run()`.
func NewProgressPrinter(out io.Writer, msg string) *ProgressPrinter {
	return &ProgressPrinter{
		out:  out,
		msg:  msg,
		stop: make(chan string),
		done: make(chan struct{}),
	}
}

// Run prints the progress until Stop is called.
func (pp *ProgressPrinter) Run() {
	defer close(pp.done)

	fmt.Fprint(pp.out, pp.msg)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fmt.Fprint(pp.out, ".")
		case final := <-pp.stop:
			fmt.Fprint(pp.out, final)
			return
		}
	}
}

// Stop stops printing and ends the line.
func (pp *ProgressPrinter) Stop() {
	pp.StopWithPrint("\n")
}

// StopWithPrint stops printing, and then prints `final`.
func (pp *ProgressPrinter) StopWithPrint(final string) {
	pp.once.Do(func() {
		pp.stop <- final
		<-pp.done
	})
}

// PromptYesOrNo asks the user a yes or no question on stdin. Anything other
// than an explicit yes is treated as no.
func PromptYesOrNo(prompt string) (bool, error) {
	fmt.Fprintf(stdout, "%s (y/N) ", prompt)
	resp, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.WithContext(err, "read response")
	}

	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
