package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// commands is the surface the REPL dispatches to. *App satisfies it.
type commands interface {
	List(ctx context.Context) error
	Create(ctx context.Context) error
	Join(ctx context.Context) error
	Health(ctx context.Context) error
}

// runREPL reads commands from reader until EOF or exit. Handler errors are
// already reported by the handlers, so the loop keeps going.
func runREPL(ctx context.Context, a commands, w io.Writer, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(w, "roomctl> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			fmt.Fprintln(w, "Available commands: (l)ist, create, join, health, exit")
		case "l", "list":
			_ = a.List(ctx)
		case "create":
			_ = a.Create(ctx)
		case "join":
			_ = a.Join(ctx)
		case "health":
			_ = a.Health(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", parts[0])
		}
	}
}
