package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"mcqgen"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	noColor bool
}

func newStyles(noColor bool) styles {
	return styles{noColor: noColor}
}

func (s styles) render(text string, color lipgloss.Color, bold bool) string {
	if s.noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}

func (s styles) heading(text string) string { return s.render(text, lipgloss.Color("39"), true) }
func (s styles) correct(text string) string { return s.render(text, lipgloss.Color("42"), true) }
func (s styles) wrong(text string) string   { return s.render(text, lipgloss.Color("196"), true) }
func (s styles) hint(text string) string    { return s.render(text, lipgloss.Color("220"), false) }
func (s styles) muted(text string) string   { return s.render(text, lipgloss.Color("244"), false) }

// playQuiz walks the loaded quiz in order, reading one answer line per
// question from in. "?" prints the hint instead of answering.
func playQuiz(in io.Reader, out io.Writer, quiz *mcqgen.Session, st styles) error {
	scanner := bufio.NewScanner(in)
	total := quiz.Len()

	for index := 1; index <= total; index++ {
		q, err := quiz.Question(index)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, st.heading(fmt.Sprintf("❓ Question %d/%d: %s", index, total, q.Text)))
		labels := make([]string, 0, len(q.Options))
		for _, opt := range q.Options {
			fmt.Fprintf(out, "%s) %s\n", opt.Label, opt.Text)
			labels = append(labels, opt.Label)
		}
		fmt.Fprintln(out)

		for !quiz.IsAnswered(index) {
			fmt.Fprintf(out, "Your answer (%s, ? for hint): ", strings.Join(labels, "/"))
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read answer: %w", err)
				}
				p := quiz.Progress()
				return fmt.Errorf("input ended after %d of %d questions", p.Answered, p.Total)
			}

			input := strings.TrimSpace(scanner.Text())
			switch {
			case input == "":
				continue
			case input == "?":
				fmt.Fprintln(out, st.hint("💡 Hint: "+q.Hint))
				continue
			}

			label := input
			if !q.HasLabel(label) {
				label = strings.ToUpper(label)
			}
			if err := quiz.SelectAnswer(index, label); err != nil {
				if errors.Is(err, mcqgen.ErrInvalidOptionLabel) {
					fmt.Fprintf(out, "Please enter one of %s\n", strings.Join(labels, ", "))
					continue
				}
				return err
			}
		}

		ok, err := quiz.IsCorrect(index)
		if err != nil {
			return err
		}
		selected, _ := quiz.Selection(index)
		fmt.Fprintln(out)
		if ok {
			fmt.Fprintln(out, st.correct("✅ Correct! Your answer: "+selected))
		} else {
			fmt.Fprintln(out, st.wrong("❌ Incorrect! Your answer: "+selected))
			if opt, found := q.Option(q.CorrectAnswerLabel); found {
				fmt.Fprintf(out, "Correct Answer: %s) %s\n", opt.Label, opt.Text)
			}
		}
		if q.Rationale != "" {
			fmt.Fprintln(out, st.muted("🧠 Rationale: "+q.Rationale))
		}
		fmt.Fprintln(out)
	}

	score, err := quiz.Score()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, st.heading(fmt.Sprintf("🏆 Score: %d / %d (%.2f%%)", score.CorrectCount, score.TotalCount, score.Percentage)))
	return nil
}
