package scenario

import "log/slog"

// Sink receives one-line lifecycle messages from a Runner. The per-scenario
// message set is part of the observable contract: tests assert on the
// presence, absence and order of these lines.
type Sink func(msg string)

// Lifecycle message prefixes emitted by the runner and its work units.
const (
	msgLaunch    = "launch"
	msgCatch     = "catch exception"
	msgTic       = "tic"
	msgFinish    = "finish"
	msgUnhandled = "unhandled exception"
)

// Discard drops all messages.
func Discard(string) {}

// SlogSink forwards messages to l at info level.
func SlogSink(l *slog.Logger) Sink {
	return func(msg string) { l.Info(msg) }
}
