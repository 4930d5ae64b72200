package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) prompt() string {
	snap := a.coordinator.Current()
	s := string(a.Mode)
	if snap.Authenticated && snap.User != nil {
		s = snap.User.Email + " " + s
	}
	return fmt.Sprintf("luma (%s)> ", s)
}

// Root is the REPL loop. Branch selection reads only the coordinator's
// {authenticated, loading} pair, the same contract the mobile navigation
// root consumes.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to Luma (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprint(a.out, a.prompt())
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		authed := a.coordinator.Current().Authenticated

		switch cmd {
		case "help":
			if authed {
				fmt.Fprintln(a.out, "Available commands: whoami, refresh, logout, health, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: login, register, health, exit")
			}

		case "login":
			if authed {
				fmt.Fprintln(a.out, "Already signed in.")
				continue
			}
			if err := a.Login(ctx); err != nil {
				fmt.Fprintln(a.out, "input error:", err)
			}

		case "register":
			if authed {
				fmt.Fprintln(a.out, "Already signed in.")
				continue
			}
			if err := a.Register(ctx); err != nil {
				fmt.Fprintln(a.out, "input error:", err)
			}

		case "whoami":
			a.WhoAmI(ctx)

		case "refresh":
			a.Refresh(ctx)

		case "logout":
			a.Logout(ctx)

		case "health":
			a.Health(ctx)

		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return

		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}
