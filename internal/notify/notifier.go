// Package notify delivers task digests to the log or a chat.
package notify

import (
	"context"
	"errors"
	"log"
	"os"
)

// Notifier delivers a plain-text message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// LogNotifier writes messages to a logger.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, text string) error {
	n.logger.Printf("[info] digest\n%s", text)
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
