package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
)

// StdoutNotifier prints messages instead of sending them. Used for dry runs.
type StdoutNotifier struct {
	W io.Writer
}

func NewStdoutNotifier() *StdoutNotifier { return &StdoutNotifier{W: os.Stdout} }

func (s *StdoutNotifier) Name() string { return "stdout" }

func (s *StdoutNotifier) Send(_ context.Context, text string) error {
	_, err := fmt.Fprintf(s.W, "%s\n", text)
	return err
}
