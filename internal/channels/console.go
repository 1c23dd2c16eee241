package channels

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/contactdesk/contactdesk/internal/agent"
)

const ruleWidth = 70

type lineResult struct {
	text string
	err  error
}

// Console is the line-oriented terminal transport. One line is one user
// turn; a blank line, "quit" or "exit" ends the session.
type Console struct {
	scanner *bufio.Scanner
	out     io.Writer
	quiet   bool // single-message mode: replies only, no chrome

	once  sync.Once
	lines chan lineResult

	stopOnce sync.Once
	stop     chan struct{} // closed by Close; releases a reader blocked on send
	reader   chan struct{} // closed when the reader goroutine returns
}

var (
	_ agent.Transport      = (*Console)(nil)
	_ agent.ProgressWriter = (*Console)(nil)
)

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		scanner: bufio.NewScanner(in),
		out:     out,
		stop:    make(chan struct{}),
		reader:  make(chan struct{}),
	}
}

// NewQuietConsole prints only replies and errors; used for `chat -m`.
func NewQuietConsole(in io.Reader, out io.Writer) *Console {
	c := NewConsole(in, out)
	c.quiet = true
	return c
}

func (c *Console) Open(context.Context) error {
	if c.quiet {
		return nil
	}
	rule := strings.Repeat("=", ruleWidth)
	_, err := fmt.Fprintf(c.out, "\n🤖 INTERACTIVE AI CONTACT ASSISTANT\n%s\n💡 Type your message and press Enter. Type 'quit' or 'exit' to end conversation.\n%s\n", rule, rule)
	return err
}

// ReadTurn blocks for the next line. Stdin reads cannot be interrupted, so
// the scanner runs in its own goroutine and ReadTurn selects on ctx.
func (c *Console) ReadTurn(ctx context.Context) (string, error) {
	if !c.quiet {
		fmt.Fprint(c.out, "\n👤 YOU: ")
	}
	c.once.Do(c.startReader)

	select {
	case res, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Console) startReader() {
	c.lines = make(chan lineResult)
	go func() {
		defer close(c.reader)
		defer close(c.lines)
		for c.scanner.Scan() {
			if !c.send(lineResult{text: c.scanner.Text()}) {
				return
			}
		}
		err := c.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		c.send(lineResult{err: err})
	}()
}

func (c *Console) send(res lineResult) bool {
	select {
	case c.lines <- res:
		return true
	case <-c.stop:
		return false
	}
}

func (c *Console) BeginTurn(context.Context) error {
	if c.quiet {
		return nil
	}
	_, err := fmt.Fprintln(c.out, "\n🤖 AI ASSISTANT (analyzing and using tools as needed...)")
	return err
}

func (c *Console) WriteProgress(_ context.Context, text string) error {
	if c.quiet {
		return nil
	}
	_, err := fmt.Fprintf(c.out, "  ↳ %s\n", text)
	return err
}

func (c *Console) WriteReply(_ context.Context, reply agent.Reply) error {
	if c.quiet {
		_, err := fmt.Fprintln(c.out, reply.Content)
		return err
	}
	fmt.Fprintf(c.out, "🤖 AI ASSISTANT: %s\n", reply.Content)
	if n := len(reply.Tools); n > 0 {
		fmt.Fprintf(c.out, "   💡 %s called: %s\n", english.Plural(n, "function", ""), strings.Join(reply.Tools, ", "))
	}
	_, err := fmt.Fprintln(c.out, strings.Repeat("-", ruleWidth))
	return err
}

func (c *Console) WriteError(_ context.Context, err error) error {
	fmt.Fprintf(c.out, "❌ Error processing your request: %v\n", err)
	if c.quiet {
		return nil
	}
	_, werr := fmt.Fprintln(c.out, strings.Repeat("-", ruleWidth))
	return werr
}

func (c *Console) Close(_ context.Context, s agent.Summary) error {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.quiet {
		return nil
	}
	if s.Status == agent.StatusCompleted {
		fmt.Fprintln(c.out, "\n👋 Thank you for using the AI Contact Assistant. Goodbye!")
	}
	_, err := fmt.Fprintf(c.out,
		"\nSession %s %s · %s (%s total) · %s · started %s\n",
		s.SessionID,
		s.Status,
		english.Plural(s.UserTurns, "turn", ""),
		english.Plural(s.TotalTurns, "message", ""),
		s.Clock(),
		humanize.Time(s.StartTime),
	)
	return err
}
