// Package logger is the process-wide structured logger.
//
// Calls take a message followed by key/value pairs:
//
//	logger.Info("Server starting", "address", addr)
//	logger.Error("Failed to save event", err)
//
// A trailing value without a key is logged under "error" when it is an error
// and under "args" otherwise.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init configures output for the given environment. "development" and
// "local" get a human readable console at debug level; anything else
// gets JSON at info level.
func Init(env string) {
	InitWithWriter(env, os.Stdout)
}

// InitWithWriter is Init with an explicit sink, mainly for tests.
func InitWithWriter(env string, w io.Writer) {
	var l zerolog.Logger
	switch env {
	case "development", "local":
		l = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			Level(zerolog.DebugLevel)
	default:
		l = zerolog.New(w).Level(zerolog.InfoLevel)
	}

	mu.Lock()
	log = l.With().Timestamp().Str("env", env).Logger()
	mu.Unlock()
}

func Debug(msg string, args ...any) {
	emit(current().Debug(), msg, args)
}

func Info(msg string, args ...any) {
	emit(current().Info(), msg, args)
}

func Warn(msg string, args ...any) {
	emit(current().Warn(), msg, args)
}

func Error(msg string, args ...any) {
	emit(current().Error(), msg, args)
}

// Fatal logs and exits the process with status 1.
func Fatal(msg string, args ...any) {
	emit(current().WithLevel(zerolog.FatalLevel), msg, args)
	os.Exit(1)
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

func emit(ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}

	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			if err, ok := args[i].(error); ok {
				ev = ev.Err(err)
			} else {
				ev = ev.Interface("args", args[i])
			}
			break
		}

		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		switch v := args[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		case string:
			ev = ev.Str(key, v)
		case int:
			ev = ev.Int(key, v)
		case float64:
			ev = ev.Float64(key, v)
		case bool:
			ev = ev.Bool(key, v)
		case time.Duration:
			ev = ev.Dur(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}

	ev.Msg(msg)
}
