// Package coach answers free-text questions with a completion backend,
// grounding each prompt in the user's profile, plan and recent conversation.
package coach

import (
	"strconv"
	"strings"

	"fitness-coach/internal/models"
)

// DefaultHistoryWindow is how many prior turns go into a prompt.
const DefaultHistoryWindow = 10

const closingInstruction = "Please provide a detailed, personalized response based on the system instructions, " +
	"the user's profile, and their current workout plan. Be specific and reference their data when relevant."

// ContextAssembler renders the prompt sent to the completion backend. It holds
// no state besides its window size.
type ContextAssembler struct {
	Window int
}

func NewContextAssembler(window int) *ContextAssembler {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &ContextAssembler{Window: window}
}

// Build concatenates, in order: instructions, profile, plan, the last Window
// prior turns and the question. prior must not contain the question itself.
// Empty inputs drop their section.
func (a *ContextAssembler) Build(instructions string, profile *models.UserProfile, plan *models.WorkoutPlan, prior []models.ChatMessage, question string) string {
	var b strings.Builder

	b.WriteString("SYSTEM INSTRUCTIONS:\n")
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\n")

	if !profile.IsEmpty() {
		b.WriteString("USER PROFILE:\n")
		b.WriteString(FormatProfile(profile))
		b.WriteString("\n")
	}

	if plan != nil && len(plan.WorkoutDays) > 0 {
		b.WriteString("USER'S CURRENT WORKOUT PLAN:\n")
		b.WriteString(FormatPlan(plan))
		b.WriteString("\n")
	}

	if recent := a.window(prior); len(recent) > 0 {
		b.WriteString("CONVERSATION HISTORY:\n")
		for _, m := range recent {
			b.WriteString(m.Role)
			b.WriteString(": ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("USER QUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(closingInstruction)
	return b.String()
}

func (a *ContextAssembler) window(prior []models.ChatMessage) []models.ChatMessage {
	n := a.Window
	if n <= 0 {
		n = DefaultHistoryWindow
	}
	if len(prior) > n {
		return prior[len(prior)-n:]
	}
	return prior
}

// FormatProfile renders one "Label: value" line per profile field.
func FormatProfile(p *models.UserProfile) string {
	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	line("Name", orDefault(p.Name, "N/A"))
	line("Age", strconv.Itoa(p.Age)+" years")
	line("Height", formatFloat(p.HeightCm)+" cm")
	line("Weight", formatFloat(p.WeightKg)+" kg")
	line("BMI", formatFloat(p.BMI)+" ("+orDefault(p.BMICategory, "N/A")+")")
	line("Activity Frequency", orDefault(p.ActivityFrequency, "N/A"))
	line("Available Hours", formatFloat(p.AvailableHours)+" hours")
	line("Has Gym Equipment", yesNo(p.GymEquipment))
	line("Goals", orDefault(p.Goals, "N/A"))
	line("Injuries/Limitations", orDefault(p.Injuries, "None"))
	line("Pushups", strconv.Itoa(p.CurrentPushups))
	line("Dips", strconv.Itoa(p.CurrentDips))
	line("Pullups", strconv.Itoa(p.CurrentPullups))
	return b.String()
}

// FormatPlan renders the plan header followed by one line per day.
func FormatPlan(p *models.WorkoutPlan) string {
	var b strings.Builder
	b.WriteString("Plan: " + p.PlanName + "\n")
	b.WriteString("Goal: " + p.Goal + "\n")
	b.WriteString("Duration: " + strconv.Itoa(p.DurationWeeks) + " weeks\n\n")
	b.WriteString("Workout Days:\n")
	for _, d := range p.WorkoutDays {
		names := make([]string, 0, len(d.Exercises))
		for _, ex := range d.Exercises {
			names = append(names, ex.Name)
		}
		b.WriteString("- " + d.Day + ": " + d.Focus + " | Exercises: " + strings.Join(names, ", ") + "\n")
	}
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
