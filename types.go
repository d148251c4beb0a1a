package subscribe

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface handlers depend on
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds subscription options
type Config interface {
	GetBaseURL() string
	GetConfirmationTTL() time.Duration
	GetMagicLinkTTL() time.Duration
}

// MagicLinkValidator checks and consumes profile access tokens. Validation is
// non-consuming; Consume clears the token unconditionally by value.
type MagicLinkValidator interface {
	Execute(ctx context.Context, event ValidateMagicLinkMessage) (*Subscriber, error)
	Consume(ctx context.Context, token string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SUBS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SUBS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SUBS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SUBS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
