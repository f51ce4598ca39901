package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s) ", a.userName)
}

// Root runs the interactive loop until EOF or an exit command.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to GophDrive CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "gdrive %s> ", a.getStatus())
		if !scanner.Scan() {
			return
		}
		if !a.dispatch(ctx, scanner.Text()) {
			return
		}
	}
}

// dispatch executes one command line; it returns false when the loop should
// stop.
func (a *App) dispatch(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}

	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "help":
		if a.isLoggedIn() {
			fmt.Fprintln(a.out, "Available commands: upload <path>, download <file> [dest], rename <old> <new>, delete <file>, list [limit], logout, exit")
		} else {
			fmt.Fprintln(a.out, "Available commands: register, login, exit")
		}
	case "register":
		a.register(ctx)
	case "login":
		a.login(ctx)
	case "logout":
		a.logout(ctx)
	case "upload":
		if len(args) != 1 {
			fmt.Fprintln(a.out, "Usage: upload <path>")
			return true
		}
		a.upload(ctx, args[0])
	case "download":
		switch len(args) {
		case 1:
			a.download(ctx, args[0], "")
		case 2:
			a.download(ctx, args[0], args[1])
		default:
			fmt.Fprintln(a.out, "Usage: download <file> [dest]")
		}
	case "rename":
		if len(args) != 2 {
			fmt.Fprintln(a.out, "Usage: rename <old> <new>")
			return true
		}
		a.rename(ctx, args[0], args[1])
	case "delete":
		if len(args) != 1 {
			fmt.Fprintln(a.out, "Usage: delete <file>")
			return true
		}
		a.delete(ctx, args[0])
	case "list":
		limitArg := ""
		if len(args) > 0 {
			limitArg = args[0]
		}
		a.list(ctx, limitArg)
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return false
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}
	return true
}
