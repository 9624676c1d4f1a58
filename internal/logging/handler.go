// Package logging provides the console slog handler used by the CLI.
//
// Records are printed as a coloured level tag followed by the message and
// any attributes in key=value form:
//
//	[INFO] starting build target=release-linux-x64
//
// Debug records are tagged [VERBOSE] and only shown when the handler level
// allows them.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/gookit/color"
)

// Options configures a Handler.
type Options struct {
	// Level is the minimum level printed. Defaults to slog.LevelInfo.
	Level slog.Leveler

	// NoColor disables ANSI colouring of the level tag.
	NoColor bool
}

// Handler is a slog.Handler writing one line per record.
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	opts   Options
	attrs  string // pre-rendered WithAttrs output
	groups []string
}

// NewHandler creates a Handler writing to w.
func NewHandler(w io.Writer, opts *Options) *Handler {
	h := &Handler{mu: &sync.Mutex{}, w: w}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

// New returns a logger writing to w, at debug level when verbose is set.
func New(w io.Writer, verbose, noColor bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(NewHandler(w, &Options{Level: level, NoColor: noColor}))
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

var levelStyles = map[slog.Level]color.Style{
	slog.LevelDebug: color.New(color.FgLightMagenta),
	slog.LevelInfo:  color.New(color.FgLightCyan),
	slog.LevelWarn:  color.New(color.FgLightYellow),
	slog.LevelError: color.New(color.FgLightRed),
}

// Tag returns the bracketed tag for a level.
func Tag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "[ERROR]"
	case level >= slog.LevelWarn:
		return "[WARN]"
	case level >= slog.LevelInfo:
		return "[INFO]"
	default:
		return "[VERBOSE]"
	}
}

func (h *Handler) tag(level slog.Level) string {
	tag := Tag(level)
	if h.opts.NoColor {
		return tag
	}
	key := slog.LevelDebug
	switch {
	case level >= slog.LevelError:
		key = slog.LevelError
	case level >= slog.LevelWarn:
		key = slog.LevelWarn
	case level >= slog.LevelInfo:
		key = slog.LevelInfo
	}
	return levelStyles[key].Sprint(tag)
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.tag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	b.WriteString(h.attrs)
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			appendAttr(b, key, ga)
		}
		return
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\"=") || val == "" {
		val = fmt.Sprintf("%q", val)
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(val)
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		appendAttr(&b, prefix, a)
	}
	h2 := *h
	h2.attrs += b.String()
	return &h2
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string{}, h.groups...), name)
	return &h2
}
