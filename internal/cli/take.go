package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yourusername/assessment-api/internal/session"
)

// Пороги, на которых клиент напоминает об оставшемся времени
var timeWarnings = []time.Duration{5 * time.Minute, time.Minute, 10 * time.Second}

const takeHelp = `Commands:
  <number>   choose an option
  n, next    next question (requires an answer)
  s, skip    skip the question
  submit     submit answers (final question only)
  t, time    show time left
  retry      resend answers that could not be submitted
  q, quit    leave, answers are kept for the next run
  h, help    show this help`

func newTakeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "take",
		Short: "Take the timed assessment",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.currentEmail()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := session.New(session.Config{
				Duration:             a.cfg.Assessment.Duration(),
				SubmitRetries:        a.cfg.Assessment.SubmitRetries,
				RetryInitialInterval: a.cfg.Assessment.RetryInitialInterval(),
			}, a.api, a.store, email)

			t := &takeLoop{
				session: s,
				out:     cmd.OutOrStdout(),
				in:      cmd.InOrStdin(),
			}
			return t.run(ctx)
		},
	}
}

// takeLoop связывает сессию с вводом и выводом терминала
type takeLoop struct {
	session *session.Session
	out     io.Writer
	in      io.Reader

	confirming bool
	warned     int
}

func (t *takeLoop) run(ctx context.Context) error {
	fmt.Fprintln(t.out, "Loading questions...")
	var runErr chan error
	err := t.session.Load(ctx)
	switch {
	case errors.Is(err, session.ErrSubmissionPending):
		fmt.Fprintln(t.out, "A previous submission is still pending and could not be sent.")
		fmt.Fprintln(t.out, pendingHelp)
	case err != nil:
		return err
	default:
		snap := t.session.Snapshot()
		if snap.State == session.Submitted {
			fmt.Fprintln(t.out, "Your previously saved answers have been submitted.")
			renderResult(t.out, snap)
			return nil
		}

		fmt.Fprintf(t.out, "%d questions, %s to complete. Type h for help.\n", len(snap.Questions), formatDuration(snap.TimeLeft))
		renderQuestion(t.out, snap)

		runCtx, cancelRun := context.WithCancel(ctx)
		defer cancelRun()
		done := make(chan error, 1)
		runErr = done
		go func() { done <- t.session.Run(runCtx) }()
	}

	inCtx, cancelIn := context.WithCancel(ctx)
	defer cancelIn()
	lines := make(chan string)
	go readLines(inCtx, t.in, lines)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(t.out, "\nInterrupted. Your answers are saved on this device.")
			return nil

		case ev := <-t.session.Events():
			t.handleEvent(ev)

		case err := <-runErr:
			runErr = nil
			if done, err := t.finish(err); err != nil || done {
				return err
			}

		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(t.out, "Input closed. Your answers are saved on this device.")
				return nil
			}
			done, err := t.handleLine(ctx, line)
			if err != nil || done {
				return err
			}
		}
	}
}

const pendingHelp = "Type retry to send it now, or q to leave. It will also be sent on the next run."

// finish обрабатывает завершение таймера. При неудачной автоматической
// отправке цикл продолжается, чтобы можно было повторить ее командой retry.
func (t *takeLoop) finish(err error) (bool, error) {
	snap := t.session.Snapshot()
	if err == nil && snap.State == session.Submitted {
		fmt.Fprintln(t.out, "\nTime is up. Your answers have been submitted.")
		renderResult(t.out, snap)
		return true, nil
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(t.out, "\nInterrupted. Your answers are saved on this device.")
		return true, nil
	}
	if errors.Is(err, session.ErrSubmissionPending) {
		fmt.Fprintln(t.out, "\nTime is up, but the submission could not be sent.")
		fmt.Fprintln(t.out, pendingHelp)
		return false, nil
	}
	return true, err
}

// retry повторяет отправку отложенного набора ответов
func (t *takeLoop) retry(ctx context.Context) (bool, error) {
	fmt.Fprintln(t.out, "Sending saved answers...")
	if err := t.session.Resume(ctx); err != nil {
		fmt.Fprintf(t.out, "Still could not send: %v\n", err)
		fmt.Fprintln(t.out, pendingHelp)
		return false, nil
	}
	snap := t.session.Snapshot()
	if snap.State != session.Submitted {
		return false, nil
	}
	fmt.Fprintln(t.out, "Submission saved.")
	renderResult(t.out, snap)
	return true, nil
}

func (t *takeLoop) handleEvent(ev session.Event) {
	switch ev.Type {
	case session.EventTick:
		for t.warned < len(timeWarnings) && ev.Snapshot.TimeLeft <= timeWarnings[t.warned] {
			fmt.Fprintf(t.out, "\n[%s left]\n", formatDuration(ev.Snapshot.TimeLeft))
			t.warned++
		}
	case session.EventSubmitting:
		if ev.Snapshot.TimeLeft <= 0 {
			fmt.Fprintln(t.out, "\nTime is up. Submitting your answers...")
		}
	}
}

func (t *takeLoop) handleLine(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)

	if t.confirming {
		t.confirming = false
		if !strings.EqualFold(line, "y") && !strings.EqualFold(line, "yes") {
			fmt.Fprintln(t.out, "Submission cancelled.")
			return false, nil
		}
		return t.submit(ctx)
	}

	snap := t.session.Snapshot()
	if snap.Pending {
		switch strings.ToLower(line) {
		case "retry", "r":
			return t.retry(ctx)
		case "q", "quit", "exit":
			fmt.Fprintln(t.out, "Your answers are saved on this device and will be sent on the next run.")
			return true, nil
		case "":
		default:
			fmt.Fprintln(t.out, pendingHelp)
		}
		return false, nil
	}

	switch strings.ToLower(line) {
	case "":
		return false, nil
	case "h", "help", "?":
		fmt.Fprintln(t.out, takeHelp)
	case "t", "time":
		fmt.Fprintf(t.out, "%s left\n", formatDuration(snap.TimeLeft))
	case "q", "quit", "exit":
		fmt.Fprintln(t.out, "Your answers are saved on this device. Run `assessment take` to continue.")
		return true, nil
	case "n", "next":
		if err := t.session.Next(); err != nil {
			t.reportError(err)
			return false, nil
		}
		renderQuestion(t.out, t.session.Snapshot())
	case "s", "skip":
		if err := t.session.Skip(); err != nil {
			t.reportError(err)
			return false, nil
		}
		after := t.session.Snapshot()
		if after.CurrentIndex == snap.CurrentIndex {
			fmt.Fprintln(t.out, "Question skipped. This is the final question, type submit when ready.")
			return false, nil
		}
		renderQuestion(t.out, after)
	case "submit":
		if !snap.IsLast() {
			t.reportError(session.ErrNotOnFinalQuestion)
			return false, nil
		}
		t.confirming = true
		fmt.Fprint(t.out, "Submit your answers? [y/N] ")
	default:
		t.selectOption(snap, line)
	}
	return false, nil
}

func (t *takeLoop) selectOption(snap session.Snapshot, input string) {
	q, ok := snap.Current()
	if !ok {
		t.reportError(session.ErrNotActive)
		return
	}
	option := input
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > q.OptionsCount() {
			t.reportError(session.ErrInvalidOption)
			return
		}
		option = q.Options[n-1]
	}
	if err := t.session.Select(option); err != nil {
		t.reportError(err)
		return
	}
	fmt.Fprintf(t.out, "Selected: %s\n", option)
}

func (t *takeLoop) submit(ctx context.Context) (bool, error) {
	fmt.Fprintln(t.out, "Submitting...")
	if err := t.session.Submit(ctx); err != nil {
		fmt.Fprintf(t.out, "Submission failed: %v. You can try again.\n", err)
		return false, nil
	}
	snap := t.session.Snapshot()
	if snap.State != session.Submitted {
		// автоматическая отправка уже идет, ждем ее результата
		return false, nil
	}
	fmt.Fprintln(t.out, "Submission saved.")
	renderResult(t.out, snap)
	return true, nil
}

func (t *takeLoop) reportError(err error) {
	switch {
	case errors.Is(err, session.ErrNotAnswered):
		fmt.Fprintln(t.out, "Choose an option first, or skip the question.")
	case errors.Is(err, session.ErrLastQuestion):
		fmt.Fprintln(t.out, "This is the final question, type submit when ready.")
	case errors.Is(err, session.ErrNotOnFinalQuestion):
		fmt.Fprintln(t.out, "Submit is only available on the final question.")
	case errors.Is(err, session.ErrInvalidOption):
		fmt.Fprintln(t.out, "No such option.")
	default:
		fmt.Fprintf(t.out, "Error: %v\n", err)
	}
}

func readLines(ctx context.Context, in io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}
