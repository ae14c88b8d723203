package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yourusername/assessment-api/internal/admin"
	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/session"
)

// answersPreview - сколько ответов показывать в таблице отправок
const answersPreview = 3

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func renderQuestion(w io.Writer, snap session.Snapshot) {
	q, ok := snap.Current()
	if !ok {
		return
	}
	fmt.Fprintf(w, "\nQuestion %d of %d  [%s left]\n", snap.CurrentIndex+1, len(snap.Questions), formatDuration(snap.TimeLeft))
	fmt.Fprintln(w, q.Question)
	current := snap.CurrentAnswer()
	for i, opt := range q.Options {
		marker := " "
		if current != nil && *current == opt {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %d) %s\n", marker, i+1, opt)
	}
	if snap.IsLast() {
		fmt.Fprintln(w, "This is the final question. Type submit when ready.")
	}
}

func renderResult(w io.Writer, snap session.Snapshot) {
	fmt.Fprintf(w, "Answered: %d, skipped: %d\n", snap.Result.AnsweredCount(), snap.Result.SkippedCount())
}

// previewAnswers показывает первые ответы и сколько осталось
func previewAnswers(answers entity.Answers) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, answersPreview+1)
	for i, k := range keys {
		if i == answersPreview {
			parts = append(parts, fmt.Sprintf("+%d more answers", len(keys)-answersPreview))
			break
		}
		value := "skipped"
		if answers[k] != nil {
			value = *answers[k]
		}
		parts = append(parts, fmt.Sprintf("Q%s: %s", k, value))
	}
	return strings.Join(parts, "; ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func renderStats(w io.Writer, d *admin.Dashboard) {
	fmt.Fprintf(w, "Total users:        %d\n", d.TotalUsers)
	fmt.Fprintf(w, "Active (last 24h):  %d\n", d.ActiveUsers)
	fmt.Fprintf(w, "Total submissions:  %d\n", d.TotalSubmissions)
}

func renderUsers(w io.Writer, d *admin.Dashboard) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tLAST LOGIN")
	for _, u := range d.Users {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Name, u.Email, formatTime(u.LastLogin))
	}
	tw.Flush()
}

func renderSubmissions(w io.Writer, d *admin.Dashboard) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tSUBMITTED AT\tANSWERED\tSKIPPED\tANSWERS")
	for _, s := range d.Submissions {
		user := s.User
		if s.UserName != "" {
			user = fmt.Sprintf("%s <%s>", s.UserName, s.User)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", user, formatTime(s.SubmittedAt), s.Answered, s.Skipped, previewAnswers(s.Answers))
	}
	tw.Flush()
}
