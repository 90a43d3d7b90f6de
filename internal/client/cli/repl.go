package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Submit(ctx context.Context, text string) error
	AddNote(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Done(ctx context.Context, args []string) error
	Remind(ctx context.Context, args []string) error
	Cancel(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Clear(ctx context.Context, args []string) error
	Encrypt(ctx context.Context, args []string) error
	Decrypt(ctx context.Context, args []string) error
	Calendar(ctx context.Context) error
}

const helpText = `Type a message to save it. Messages starting with "todo" become todos,
"remind me" / "erinnere mich" become reminders, anything else is a note.

Commands:
  /list [todo|reminder|note]   list messages, newest first
  /show <id>                   show a message and mark it read
  /done <id>                   toggle completion
  /remind <id> <when>          set a reminder ("tomorrow 9am", "2024-05-01 14:30")
  /cancel <id>                 cancel a reminder
  /delete <id>                 delete a message
  /clear [todo|reminder|note]  delete all messages (of a type)
  /note                        enter a multi-line note
  /encrypt <id>, /decrypt <id> encrypt or decrypt a message text
  /calendar                    show calendar entries
  /help, /exit`

// runREPL starts the chat loop.
//
// Each line is read from reader. Lines starting with "/" are dispatched as
// commands; any other non-empty line is submitted as a new message. Errors
// returned by handlers are printed and the loop continues. The loop exits on
// EOF, on "/exit" or "/quit", or when ctx is cancelled.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ck %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			report(a.Submit(ctx, line))
			continue
		}

		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "/help", "/h":
			printlnFn(helpText)

		case "/list", "/l":
			report(a.List(ctx, args))

		case "/show":
			report(a.Show(ctx, args))

		case "/done":
			report(a.Done(ctx, args))

		case "/remind":
			report(a.Remind(ctx, args))

		case "/cancel":
			report(a.Cancel(ctx, args))

		case "/delete", "/rm":
			report(a.Delete(ctx, args))

		case "/clear":
			report(a.Clear(ctx, args))

		case "/note":
			report(a.AddNote(ctx))

		case "/encrypt":
			report(a.Encrypt(ctx, args))

		case "/decrypt":
			report(a.Decrypt(ctx, args))

		case "/calendar":
			report(a.Calendar(ctx))

		case "/exit", "/quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	if err != nil {
		printlnFn(red("error:"), err)
	}
}
