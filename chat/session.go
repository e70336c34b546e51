package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/chidi-nwosu/insight_db/insight"
	"github.com/chidi-nwosu/insight_db/insight/prompts"
)

var exitCommands = []string{"exit", "quit", "bye"}

// Entry records one exchange for the in-memory history.
type Entry struct {
	Timestamp time.Time
	Question  string
	Response  *insight.AnalysisResponse
}

// Session is the interactive ask-the-data loop.
type Session struct {
	engine  *insight.Engine
	in      *bufio.Scanner
	out     io.Writer
	history []Entry
}

func NewSession(engine *insight.Engine, in io.Reader, out io.Writer) *Session {
	return &Session{
		engine: engine,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// Run reads questions until an exit command or EOF.
func (s *Session) Run(ctx context.Context) error {
	color.Cyan("\nBusiness Insight Chat - ask me about your data!")
	fmt.Fprintf(s.out, "Type %s to end the session.\n", strings.Join(exitCommands, ", "))
	fmt.Fprintln(s.out, "Suggested questions:")
	for _, p := range prompts.SuggestedPrompts {
		fmt.Fprintf(s.out, "  - %s\n", p)
	}
	fmt.Fprintln(s.out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(s.out, "You: ")
		if !s.in.Scan() {
			return s.in.Err()
		}
		question := strings.TrimSpace(s.in.Text())
		if question == "" {
			continue
		}
		if isExitCommand(question) {
			color.Green("Goodbye!")
			return nil
		}

		resp, err := s.engine.ProcessQuery(ctx, question)
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}

		s.render(resp)
		s.history = append(s.history, Entry{
			Timestamp: time.Now(),
			Question:  question,
			Response:  resp,
		})
	}
}

// History returns the recorded exchanges.
func (s *Session) History() []Entry {
	return s.history
}

func (s *Session) render(resp *insight.AnalysisResponse) {
	switch resp.ResponseType {
	case insight.ResponseInfo:
		color.Yellow("\nAI: %s\n", resp.Answer)
	case insight.ResponseAnalysis:
		s.renderAnalysis(resp)
	default:
		color.Red("\nError: %s\n", resp.Answer)
	}
	if resp.Cached {
		fmt.Fprintln(s.out, "(cached response)")
	}
}

func (s *Session) renderAnalysis(resp *insight.AnalysisResponse) {
	color.Yellow("\nAI-generated insights & queries:")
	for _, ins := range resp.Insights {
		fmt.Fprintln(s.out)
		color.Cyan("Insight: %s", ins.Insight)
		if ins.BusinessValue != "" {
			fmt.Fprintf(s.out, "Business value: %s\n", ins.BusinessValue)
		}
		if ins.Visualization != "" {
			fmt.Fprintf(s.out, "Visualization: %s\n", ins.Visualization)
		}
		if len(ins.Metrics) > 0 {
			fmt.Fprintf(s.out, "Key metrics: %s\n", strings.Join(ins.Metrics, ", "))
		}
		if ins.SQLQuery != "" {
			fmt.Fprintf(s.out, "SQL:\n%s\n", ins.SQLQuery)
		}
		if ins.Note != "" {
			color.Red("%s", ins.Note)
			continue
		}
		if len(ins.Columns) > 0 {
			fmt.Fprintln(s.out)
			insight.RenderRows(s.out, ins.Columns, ins.Rows)
		}
	}
	fmt.Fprintln(s.out)
}

func isExitCommand(input string) bool {
	lowered := strings.ToLower(input)
	for _, cmd := range exitCommands {
		if lowered == cmd {
			return true
		}
	}
	return false
}
