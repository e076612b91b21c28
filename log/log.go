// Package log is the structured logger every subsystem takes at
// construction: a Logger carrying a fixed context, level methods taking
// free-form key/value pairs, and a handler chain writing to a color-aware
// terminal stream.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "CRIT"
	case LvlError:
		return "ERROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	default:
		return "DBUG"
	}
}

// Logger is the interface every subsystem depends on.
type Logger interface {
	New(ctx ...interface{}) Logger
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

type logger struct {
	ctx []interface{}
	h   *handler
}

type handler struct {
	mu     sync.Mutex
	out    io.Writer
	color  bool
	minLvl Lvl
}

var root = &logger{h: &handler{
	out:    colorable.NewColorableStderr(),
	color:  isatty.IsTerminal(os.Stderr.Fd()),
	minLvl: LvlInfo,
}}

// Root returns the root logger. Subsystems call Root().New(...) to derive
// their own scoped logger, mirroring eth/backend.go's `log log.Logger` field.
func Root() Logger { return root }

// SetLevel adjusts the minimum level the root handler emits, used by tests
// that want quiet output.
func SetLevel(l Lvl) { root.h.minLvl = l }

func (l *logger) New(ctx ...interface{}) Logger {
	nc := make([]interface{}, 0, len(l.ctx)+len(ctx))
	nc = append(nc, l.ctx...)
	nc = append(nc, ctx...)
	return &logger{ctx: nc, h: l.h}
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	if lvl > l.h.minLvl {
		return
	}
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	all := make([]interface{}, 0, len(l.ctx)+len(ctx))
	all = append(all, l.ctx...)
	all = append(all, ctx...)
	fmt.Fprintf(l.h.out, "%s[%-5s] %-40s", time.Now().Format("01-02|15:04:05.000"), lvl, msg)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(l.h.out, " %v=%v", all[i], all[i+1])
	}
	fmt.Fprintln(l.h.out)
}

func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{})  { l.write(LvlCrit, msg, ctx) }

// New is a convenience for Root().New(ctx...).
func New(ctx ...interface{}) Logger { return root.New(ctx...) }
