// Package console renders a quiz session in a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mindgap-tutor/internal/app"
	"mindgap-tutor/internal/domain"
)

// Driver is the subset of the tutor service the renderer needs.
type Driver interface {
	Select(ctx context.Context, id, option string) (app.State, error)
	Advance(ctx context.Context, id string) (app.State, error)
	Review(ctx context.Context, id string) ([]domain.Answer, error)
}

type Renderer struct {
	driver Driver
	in     *bufio.Scanner
	out    io.Writer
}

func NewRenderer(driver Driver, in io.Reader, out io.Writer) *Renderer {
	return &Renderer{driver: driver, in: bufio.NewScanner(in), out: out}
}

// Run shows the lesson and walks the learner through the started quiz.
// It returns the final result, or io.ErrUnexpectedEOF if input ends early.
func (r *Renderer) Run(ctx context.Context, started app.StartResult) (domain.Completion, error) {
	st := started.State
	if started.Lesson != "" {
		r.printf("\n== %s ==\n\n%s\n", st.Topic, strings.TrimSpace(started.Lesson))
	}

	for !st.Finished() {
		if err := ctx.Err(); err != nil {
			return domain.Completion{}, err
		}
		var err error
		st, err = r.askQuestion(ctx, st)
		if err != nil {
			return domain.Completion{}, err
		}
		r.showFeedback(st)

		r.printf("\nPress Enter to continue...")
		if _, err := r.readLine(); err != nil {
			return domain.Completion{}, err
		}
		st, err = r.driver.Advance(ctx, st.SessionID)
		if err != nil {
			return domain.Completion{}, err
		}
	}

	result := *st.Result
	r.showResult(result)
	if answers, err := r.driver.Review(ctx, st.SessionID); err == nil {
		r.showReview(answers)
	}
	return result, nil
}

func (r *Renderer) askQuestion(ctx context.Context, st app.State) (app.State, error) {
	q := st.Question
	r.printf("\nQuestion %d of %d (score %d)\n%s\n", st.Index+1, st.Total, st.Score, q.Prompt)
	for i, opt := range q.Options {
		r.printf("  %d) %s\n", i+1, opt)
	}

	for {
		r.printf("> ")
		line, err := r.readLine()
		if err != nil {
			return st, err
		}
		option, ok := pickOption(q.Options, line)
		if !ok {
			r.printf("Choose 1-%d.\n", len(q.Options))
			continue
		}
		next, err := r.driver.Select(ctx, st.SessionID, option)
		if errors.Is(err, domain.ErrOptionNotFound) {
			r.printf("Choose 1-%d.\n", len(q.Options))
			continue
		}
		return next, err
	}
}

// pickOption accepts an option's text or its number. Text wins, so numeric
// options are picked by value.
func pickOption(options []string, line string) (string, bool) {
	line = strings.TrimSpace(line)
	for _, o := range options {
		if strings.EqualFold(o, line) {
			return o, true
		}
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	return "", false
}

func (r *Renderer) showFeedback(st app.State) {
	fb := st.Feedback
	if fb == nil {
		return
	}
	for _, o := range fb.Options {
		mark := "  "
		switch {
		case o.Correct:
			mark = "✓ "
		case o.Selected:
			mark = "✗ "
		}
		r.printf("  %s%s\n", mark, o.Text)
	}
	if fb.Correct {
		r.printf("Correct!\n")
	} else {
		r.printf("Not quite. The answer is %s.\n", fb.CorrectAnswer)
	}
	if fb.Explanation != "" {
		r.printf("%s\n", fb.Explanation)
	}
}

func (r *Renderer) showResult(c domain.Completion) {
	r.printf("\nYou scored %d/%d (%d%%).\n", c.Score, c.Total, c.Percentage())
	switch {
	case c.Perfect():
		r.printf("Perfect score!\n")
	case c.Band() == domain.BandGreat:
		r.printf("Great job.\n")
	default:
		r.printf("Keep learning, %s is worth another look.\n", c.Topic)
	}
	if c.NeedsReview() {
		r.printf("%s was added to your weak topics.\n", c.Topic)
	}
}

func (r *Renderer) showReview(answers []domain.Answer) {
	var wrong []domain.Answer
	for _, a := range answers {
		if !a.Correct {
			wrong = append(wrong, a)
		}
	}
	if len(wrong) == 0 {
		return
	}
	r.printf("\nReview:\n")
	for _, a := range wrong {
		r.printf("- %s\n  you answered %s, correct is %s\n", a.Prompt, a.Selected, a.CorrectAnswer)
		if a.Explanation != "" {
			r.printf("  %s\n", a.Explanation)
		}
	}
}

func (r *Renderer) readLine() (string, error) {
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return r.in.Text(), nil
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
