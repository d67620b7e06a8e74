package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// commander is the command surface the REPL dispatches to.
type commander interface {
	Register(ctx context.Context, args []string) error
	Authorize(ctx context.Context, args []string) error
	Preview(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Backup(ctx context.Context) error
	Stats(ctx context.Context) error
}

const helpText = `Available commands:
  register <image> [name]     enroll a face, or replace an existing one
  authorize <image>           identify the face in a capture
  preview <image> <out.png>   write the capture with detected landmarks drawn
  list                        list enrolled names
  backup                      upload the encrypted store to object storage
  stats                       print workflow metrics
  exit | quit                 leave the console`

// runREPL reads commands line by line and dispatches them to c. Handler
// errors are reported and the loop continues.
func runREPL(ctx context.Context, c commander, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(w, "facegate> ")
		line, err := readLine(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintln(w, "read error:", err)
			}
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(w, helpText)

		case "register":
			err = c.Register(ctx, args)

		case "authorize", "auth":
			err = c.Authorize(ctx, args)

		case "preview":
			err = c.Preview(ctx, args)

		case "l", "list":
			err = c.List(ctx)

		case "backup":
			err = c.Backup(ctx)

		case "stats":
			err = c.Stats(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(w, "Error:", err)
		}
	}
}
