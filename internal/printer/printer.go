// Package printer writes human readable command output. Styling is applied
// only when the output is a terminal.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	colorSuccess = lipgloss.Color("#9ece6a")
	colorInfo    = lipgloss.Color("#7aa2f7")
	colorWarning = lipgloss.Color("#e0af68")
	colorError   = lipgloss.Color("#f7768e")
	colorMuted   = lipgloss.Color("#565f89")
)

// Printer writes status lines and key/value listings.
type Printer struct {
	w      io.Writer
	styled bool

	success lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	key     lipgloss.Style
}

// New returns a printer writing to w. Styles are used when styled is set.
func New(w io.Writer, styled bool) *Printer {
	return &Printer{
		w:       w,
		styled:  styled,
		success: lipgloss.NewStyle().Foreground(colorSuccess).Bold(true),
		info:    lipgloss.NewStyle().Foreground(colorInfo).Bold(true),
		warn:    lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
		err:     lipgloss.NewStyle().Foreground(colorError).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		key:     lipgloss.NewStyle().Foreground(colorInfo),
	}
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type ctxKey struct{}

// With stores p in ctx.
func With(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored in ctx, or one writing to stdout.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout, IsTerminal(os.Stdout))
}

// Styled reports whether the printer applies styles.
func (p *Printer) Styled() bool { return p.styled }

func (p *Printer) line(style lipgloss.Style, icon, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.styled {
		_, _ = fmt.Fprintf(p.w, "%s %s\n", p.render(style, icon), msg)
		return
	}
	_, _ = fmt.Fprintln(p.w, msg)
}

func (p *Printer) Successf(format string, args ...any) { p.line(p.success, "✔", format, args...) }
func (p *Printer) Infof(format string, args ...any)    { p.line(p.info, "•", format, args...) }
func (p *Printer) Warnf(format string, args ...any)    { p.line(p.warn, "!", format, args...) }
func (p *Printer) Errorf(format string, args ...any)   { p.line(p.err, "✘", format, args...) }

// Printf writes an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// Field writes an aligned "key: value" line.
func (p *Printer) Field(key string, value any) {
	_, _ = fmt.Fprintf(p.w, "  %s %v\n", p.render(p.key, fmt.Sprintf("%-14s", key+":")), value)
}

// Muted renders s in the muted style.
func (p *Printer) Muted(s string) string { return p.render(p.muted, s) }

// Accent renders s in the highlight style for the given severity: success,
// info, warn or error.
func (p *Printer) Accent(severity, s string) string {
	switch severity {
	case "success":
		return p.render(p.success, s)
	case "warn":
		return p.render(p.warn, s)
	case "error":
		return p.render(p.err, s)
	default:
		return p.render(p.info, s)
	}
}
