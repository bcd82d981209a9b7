// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperwork/internal/conversation"
	"github.com/pdiddy/paperwork/internal/search"
	"github.com/pdiddy/paperwork/pkg/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat [query]",
	Short: "Start an interactive research conversation",
	Long: `Chat searches for papers matching the query, asks a few questions about
how well you know the topic, and answers using the results. Follow-up lines
are sent as questions; lines starting with / are commands (type /help).`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Bool("expand", false, "expand queries with related keywords")
	chatCmd.Flags().Bool("no-paper-ref", false, "do not attach selected papers to follow-ups")
	rootCmd.AddCommand(chatCmd)
}

const chatHelp = `Commands:
  /new <query>          start a new search
  /papers               show the paper list
  /select <ids...>      select papers
  /unselect <ids...>    unselect papers
  /rank <criterion>     rank by relevance, technical_innovation, feasibility, time or citation
  /move <from> <to>     move a paper
  /remove               remove selected papers from the list
  /archive              archive selected papers to the library
  /library              bring selected library papers into the conversation
  /pdf <url>            use a PDF's text in follow-ups
  /closepdf             stop using the PDF
  /yes, /no             tell whether you understood the last answer
  /quit                 leave`

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := conversation.Options{
		Chat:       a.cfg.Chat,
		MaxResults: a.cfg.Search.MaxResults,
		Logger:     a.log,
	}
	if expand, _ := cmd.Flags().GetBool("expand"); expand {
		opts.Chat.ExpandKeywords = true
	}
	if noRef, _ := cmd.Flags().GetBool("no-paper-ref"); noRef {
		opts.Chat.PaperReference = false
	}
	s := &chatSession{
		c:   conversation.New(a.client, a.processor(), a.profile, opts),
		in:  bufio.NewScanner(os.Stdin),
		out: os.Stdout,
	}

	query := strings.Join(args, " ")
	if query == "" {
		fmt.Fprint(s.out, "Ask me anything about research papers: ")
		line, ok := s.readLine()
		if !ok {
			return nil
		}
		query = line
	}
	if err := s.start(ctx, query); err != nil {
		return err
	}
	return s.loop(ctx)
}

type chatSession struct {
	c       *conversation.Controller
	in      *bufio.Scanner
	out     io.Writer
	printed int
}

func (s *chatSession) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// start submits query, asks the clarifying questions and prints the
// initial answer.
func (s *chatSession) start(ctx context.Context, query string) error {
	s.printed = 0
	if err := s.c.Submit(ctx, query); err != nil {
		return err
	}
	if s.c.State() == conversation.AwaitingUnderstanding {
		answers := s.askQuestions(s.c.Questions())
		var err error
		if len(answers) == 0 {
			err = s.c.Skip(ctx)
		} else {
			err = s.c.Answer(ctx, answers)
		}
		if err != nil {
			return err
		}
	}
	s.printTurns()
	search.FormatTable(s.c.Papers(), s.out)
	return nil
}

func (s *chatSession) askQuestions(questions []string) map[string]types.UnderstandingLevel {
	fmt.Fprintln(s.out, "How well do you know these? 0 no idea, 1 heard of it, 2 somewhat, 3 fully. Enter skips.")
	answers := make(map[string]types.UnderstandingLevel)
	for _, q := range questions {
		fmt.Fprintf(s.out, "  %s: ", q)
		line, ok := s.readLine()
		if !ok || line == "" {
			continue
		}
		level, err := types.ParseUnderstandingLevel(line)
		if err != nil {
			fmt.Fprintln(s.out, "  skipped:", err)
			continue
		}
		answers[q] = level
	}
	return answers
}

func (s *chatSession) printTurns() {
	turns := s.c.Transcript()
	if s.printed > len(turns) {
		s.printed = 0
	}
	for _, t := range turns[s.printed:] {
		fmt.Fprintf(s.out, "[%s] %s: %s\n", t.Time, t.Sender, t.Text)
	}
	s.printed = len(turns)
}

func (s *chatSession) loop(ctx context.Context) error {
	for {
		fmt.Fprint(s.out, "> ")
		line, ok := s.readLine()
		if !ok {
			return s.in.Err()
		}
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if _, err := s.c.Send(ctx, line); err != nil {
				fmt.Fprintln(s.out, "error:", err)
			}
			s.printTurns()
			continue
		}
		quit, err := s.command(ctx, line)
		if err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
		if quit {
			return nil
		}
	}
}

func (s *chatSession) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	name, rest := fields[0], fields[1:]
	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(s.out, chatHelp)
	case "/new":
		if err := s.start(ctx, strings.Join(rest, " ")); err != nil {
			return false, err
		}
	case "/papers":
		search.FormatTable(s.c.Papers(), s.out)
	case "/select", "/unselect":
		ids, err := parseIDs(rest)
		if err != nil {
			return false, err
		}
		s.c.Select(ids, name == "/select")
		search.FormatTable(s.c.Papers(), s.out)
	case "/rank":
		if len(rest) != 1 {
			return false, errors.New("usage: /rank <criterion>")
		}
		c, err := search.ParseCriterion(rest[0])
		if err != nil {
			return false, err
		}
		s.c.RankBy(c)
		search.FormatTable(s.c.Papers(), s.out)
	case "/move":
		ids, err := parseIDs(rest)
		if err != nil || len(ids) != 2 {
			return false, errors.New("usage: /move <from> <to>")
		}
		if err := s.c.Reorder(ids[0], ids[1]); err != nil {
			return false, err
		}
		search.FormatTable(s.c.Papers(), s.out)
	case "/remove":
		fmt.Fprintf(s.out, "Removed %d paper(s)\n", s.c.RemoveSelected())
	case "/archive":
		n, err := s.c.ArchiveSelected(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "Archived %d new paper(s)\n", n)
	case "/library":
		n, err := s.c.AskLibrarySelection(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "Added %d library paper(s)\n", n)
		search.FormatTable(s.c.Papers(), s.out)
	case "/pdf":
		if len(rest) != 1 {
			return false, errors.New("usage: /pdf <url>")
		}
		if err := s.c.OpenPDF(ctx, rest[0]); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, "Using", s.c.PDF())
	case "/closepdf":
		s.c.ClosePDF()
	case "/yes", "/no":
		if err := s.c.Feedback(ctx, name == "/yes"); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, "Thanks, your profile was updated.")
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

// parseIDs converts paper ID arguments.
func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid paper id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
