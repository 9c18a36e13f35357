package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"fitness-coach/internal/models"
	"fitness-coach/internal/plan"
)

// Telegram rejects messages longer than this many characters.
const maxMessageLength = 4096

const helpText = `I'm your calisthenics coach. Commands:

/start - fill in your profile and get a new plan
/plan - show your whole plan
/today - today's workout
/done N - mark exercise N of today as completed
/undo N - mark exercise N of today as not completed
/progress - how far you are through the plan
/history - recent coach conversation
/retry - resend a question that did not get an answer
/clear - forget the coach conversation
/help - this message

Anything else you send is a question for the coach.`

func formatPlan(p *models.WorkoutPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏋️ %s\n", p.PlanName)
	if p.Goal != "" {
		fmt.Fprintf(&b, "Goal: %s\n", p.Goal)
	}
	fmt.Fprintf(&b, "Duration: %d weeks\n", p.DurationWeeks)
	if p.OverallNotes != "" {
		fmt.Fprintf(&b, "\n%s\n", p.OverallNotes)
	}
	for i := range p.WorkoutDays {
		b.WriteString("\n")
		b.WriteString(formatDay(&p.WorkoutDays[i]))
	}
	return b.String()
}

// formatDay lists the day's exercises numbered from 1, the numbering /done uses.
func formatDay(d *models.WorkoutDay) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s: %s\n", d.Day, d.Focus)
	if d.Notes != "" {
		fmt.Fprintf(&b, "%s\n", d.Notes)
	}
	if len(d.Exercises) == 0 {
		b.WriteString("Rest and recover.\n")
		return b.String()
	}
	for i, ex := range d.Exercises {
		mark := "⬜"
		if ex.Completed {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %d. %s (%s)\n", mark, i+1, ex.Name, volume(ex))
	}
	return b.String()
}

func volume(ex models.Exercise) string {
	var parts []string
	switch {
	case ex.HasDuration() && ex.Sets > 0:
		parts = append(parts, fmt.Sprintf("%d x %s", ex.Sets, ex.Duration))
	case ex.HasDuration():
		parts = append(parts, ex.Duration)
	case ex.Sets > 0 && ex.Reps > 0:
		parts = append(parts, fmt.Sprintf("%d x %d", ex.Sets, ex.Reps))
	case ex.Reps > 0:
		parts = append(parts, strconv.Itoa(ex.Reps)+" reps")
	case ex.Sets > 0:
		parts = append(parts, strconv.Itoa(ex.Sets)+" sets")
	}
	if ex.RestPeriod != "" {
		parts = append(parts, "rest "+ex.RestPeriod)
	}
	if len(parts) == 0 {
		return "as prescribed"
	}
	return strings.Join(parts, ", ")
}

func formatProgress(s plan.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Progress: %d/%d exercises (%.0f%%)\n", s.Completed, s.Total, s.Percent)
	fmt.Fprintf(&b, "Days fully completed: %d/%d\n\n", s.CompletedDays, len(s.Days))
	for _, d := range s.Days {
		mark := "•"
		if d.Done() {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s: %d/%d\n", mark, d.Day, d.Completed, d.Total)
	}
	b.WriteString("\n")
	b.WriteString(plan.MotivationalMessage(s.Percent))
	return b.String()
}

// formatHistory renders the last limit turns.
func formatHistory(msgs []models.DisplayMessage, limit int) string {
	if len(msgs) == 0 {
		return "No conversation yet. Ask me anything about your training."
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		who := "You"
		if m.IsAI {
			who = "Coach"
		}
		fmt.Fprintf(&b, "%s: %s", who, m.Text)
	}
	return b.String()
}

func pendingWarning(n int) string {
	if n == 1 {
		return "⏳ 1 message is still waiting for an answer from before. Send /retry to resend it."
	}
	return fmt.Sprintf("⏳ %d messages are still waiting for an answer from before. Send /retry to resend the oldest.", n)
}

// parseExerciseNumber reads a 1-based exercise number and returns its index.
func parseExerciseNumber(args string, count int) (int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return 0, fmt.Errorf("send the exercise number, for example /done 1")
	}
	n, err := strconv.Atoi(args)
	if err != nil || n < 1 || n > count {
		return 0, fmt.Errorf("pick an exercise between 1 and %d", count)
	}
	return n - 1, nil
}

// splitMessage cuts text into chunks Telegram accepts, preferring line breaks.
// Telegram counts message length in UTF-16 code units.
func splitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = maxMessageLength
	}
	var chunks []string
	runes := []rune(text)
	for utf16Len(runes) > limit {
		fit, units := 0, 0
		for fit < len(runes) {
			n := utf16.RuneLen(runes[fit])
			if n < 0 {
				n = 1
			}
			if units+n > limit {
				break
			}
			units += n
			fit++
		}
		if fit == 0 {
			fit = 1
		}
		cut := fit
		for i := fit; i > fit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 || len(chunks) == 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func utf16Len(runes []rune) int {
	n := 0
	for _, r := range runes {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
