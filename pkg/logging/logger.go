// Package logging provides structured logging with agent-invocation step tracking.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// contextKey is used for storing logger in context.
type contextKey struct{}

// Logger wraps slog.Logger with agent-invocation tracking: one StartInvocation
// per agent.Run, one Step per state-machine transition.
type Logger struct {
	*slog.Logger
	invocation string
	startTime  time.Time
	stepNum    int
}

// InvocationError represents an error that occurred during a named state
// transition of an agent invocation.
type InvocationError struct {
	Invocation string
	State      string
	StepNum    int
	Op         string
	Err        error
	Stack      string
}

func (e *InvocationError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("[%s] state %d (%s) %s: %v", e.Invocation, e.StepNum, e.State, e.Op, e.Err)
	}
	return fmt.Sprintf("[%s] state %d (%s): %v", e.Invocation, e.StepNum, e.State, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Format implements fmt.Formatter for detailed error output.
func (e *InvocationError) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			fmt.Fprintf(f, "%s\n\nStack trace:\n%s", e.Error(), e.Stack)
			return
		}
		fallthrough
	default:
		fmt.Fprint(f, e.Error())
	}
}

// New creates a new Logger with the specified output format.
func New(jsonFormat bool) *Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{Key: "ts", Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000"))}
			}
			return a
		},
	}
	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Default returns the default logger.
func Default() *Logger {
	return New(false)
}

// With returns a new Logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:     l.Logger.With(args...),
		invocation: l.invocation,
		startTime:  l.startTime,
		stepNum:    l.stepNum,
	}
}

// WithContext returns a new context with the logger attached.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext retrieves the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

// StartInvocation creates a logger scoped to a single agent.Run call, named
// after the capability being executed.
func (l *Logger) StartInvocation(capability string, attrs ...any) *Logger {
	newLogger := &Logger{
		Logger:     l.Logger.With(append([]any{"capability", capability}, attrs...)...),
		invocation: capability,
		startTime:  time.Now(),
	}
	newLogger.Debug("agent invocation started")
	return newLogger
}

// StepState names a state-machine state or other logical phase a Step call
// logs entry/exit for. A domain enum (e.g. agent.State) satisfies this by
// defining a String() method; Label covers one-off phase names so callers
// never pass a bare, unchecked string.
type StepState interface {
	String() string
}

// Label is a StepState for phases that aren't part of a state-machine enum,
// e.g. "repair_prompt" or "tool_call".
type Label string

func (l Label) String() string { return string(l) }

// Step logs entry into a state-machine state and returns a function to log
// its exit (success or failure).
func (l *Logger) Step(state StepState, attrs ...any) func(error) {
	l.stepNum++
	stepStart := time.Now()
	stepLogger := l.With(append([]any{"state", state.String(), "step_num", l.stepNum}, attrs...)...)
	stepLogger.Debug("state entered")

	return func(err error) {
		elapsed := time.Since(stepStart)
		if err != nil {
			stepLogger.Error("state failed",
				"error", err.Error(),
				"elapsed_ms", elapsed.Milliseconds(),
			)
		} else {
			stepLogger.Debug("state completed",
				"elapsed_ms", elapsed.Milliseconds(),
			)
		}
	}
}

// EndInvocation logs completion of the agent invocation.
func (l *Logger) EndInvocation(err error) {
	elapsed := time.Since(l.startTime)
	if err != nil {
		l.Error("agent invocation failed",
			"error", err.Error(),
			"elapsed_ms", elapsed.Milliseconds(),
			"total_states", l.stepNum,
		)
		return
	}
	l.Debug("agent invocation completed",
		"elapsed_ms", elapsed.Milliseconds(),
		"total_states", l.stepNum,
	)
}

// WrapError wraps an error with invocation/state context and a stack trace.
func (l *Logger) WrapError(state, op string, err error) error {
	if err == nil {
		return nil
	}
	return &InvocationError{
		Invocation: l.invocation,
		State:      state,
		StepNum:    l.stepNum,
		Op:         op,
		Err:        err,
		Stack:      captureStack(2),
	}
}

// captureStack captures the current stack trace, skipping the specified number of frames.
func captureStack(skip int) string {
	var pcs [32]uintptr
	n := runtime.Callers(skip+1, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") {
			if !more {
				break
			}
			continue
		}
		fmt.Fprintf(&sb, "  %s\n    %s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return sb.String()
}

// Attrs is a helper to build attribute slices inline.
func Attrs(keyValues ...any) []any {
	return keyValues
}
