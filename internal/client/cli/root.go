package cli

import (
	"context"
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/dmitrijs2005/vibedtracker/internal/client/services"
	"github.com/fatih/color"
)

func (a *App) getStatus() string {
	s := "locked"
	if a.isUnlocked() {
		s = "unlocked"
		if a.tracking != nil {
			if st := a.tracking.State(); st != services.TrackingIdle {
				s += " " + st.String()
			}
		}
	}
	if m := a.mode(); m != "" {
		s += " " + string(m)
	}
	return fmt.Sprintf("(%s)", s)
}

// banner is the start screen title, shown on terminals only.
func banner() string {
	return color.CyanString(figure.NewFigure("VibedTracker", "", true).String())
}

// Root greets the user, offers to unlock and runs the REPL on stdin.
func (a *App) Root(ctx context.Context) {
	if a.interactive {
		printlnFn(banner())
	}
	say("Welcome to VibedTracker CLI (type 'help' for commands)")

	if err := a.Unlock(ctx); err != nil {
		failure(err)
		hint("Use %q to create a passphrase if this account has none", "setup")
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
