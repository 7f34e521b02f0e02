package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

func say(format string, args ...any) {
	printlnFn(fmt.Sprintf(format, args...))
}

func success(format string, args ...any) {
	printlnFn(color.GreenString("✓") + " " + fmt.Sprintf(format, args...))
}

func warn(format string, args ...any) {
	printlnFn(color.YellowString("!") + " " + fmt.Sprintf(format, args...))
}

func failure(err error) {
	printlnFn(color.RedString("✗") + " " + err.Error())
}

func hint(format string, args ...any) {
	printlnFn(color.CyanString("→") + " " + fmt.Sprintf(format, args...))
}

// withSpinner runs fn while a spinner is shown, if the App is attached to a
// terminal.
func (a *App) withSpinner(ctx context.Context, message string, fn func() error) error {
	if !a.interactive {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	if err := s.Color("cyan"); err != nil {
		a.logger.Debug(ctx, "spinner color", "error", err)
	}
	s.Start()
	defer s.Stop()

	return fn()
}

// formatDuration renders d as H:MM:SS.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

func formatClock(t time.Time) string {
	return t.Local().Format("15:04")
}

func formatDay(t time.Time) string {
	return t.Local().Format("2006-01-02 Mon")
}
