package bot

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"fitness-coach/internal/models"
)

type surveyStep int

const (
	StepAge surveyStep = iota
	StepHeight
	StepWeight
	StepGoal
	StepActivity
	StepHours
	StepEquipment
	StepInjuries
	StepLevel
	StepConfirm
	StepDone
)

const (
	answerYes     = "Yes"
	answerNo      = "No"
	answerNone    = "None"
	answerConfirm = "Yes, build my plan"
	answerRestart = "No, start over"
)

var (
	goalOptions = [][]string{
		{"Build muscle", "Lose weight"},
		{"Improve endurance", "General fitness"},
	}
	activityOptions = [][]string{
		{"Rarely", "1-2 times a week"},
		{"3-4 times a week", "5+ times a week"},
	}
)

// prompt is a question for the user with optional reply-keyboard rows.
type prompt struct {
	Text    string
	Options [][]string
}

// survey collects a UserProfile one answer at a time. Updates for one user are
// handled on separate goroutines, so the front end goes through advance.
type survey struct {
	mu      sync.Mutex
	step    surveyStep
	profile models.UserProfile
}

func newSurvey(userID int64, name string) *survey {
	return &survey{
		step:    StepAge,
		profile: models.UserProfile{UserID: userID, Name: name},
	}
}

func (s *survey) done() bool { return s.step == StepDone }

// advance applies one answer under the survey lock. finished is true only for
// the answer that completed the survey.
func (s *survey) advance(text string) (next prompt, profile models.UserProfile, finished bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done() {
		return s.current(), s.profile, false
	}
	next, _ = s.answer(text)
	return next, s.profile, s.done()
}

// current returns the question for the step the survey is on.
func (s *survey) current() prompt {
	switch s.step {
	case StepAge:
		return prompt{Text: "How old are you?"}
	case StepHeight:
		return prompt{Text: "What is your height in centimeters (for example, 175)?"}
	case StepWeight:
		return prompt{Text: "What is your weight in kilograms (for example, 70)?"}
	case StepGoal:
		return prompt{Text: "What is your main goal? Pick one or type several separated by commas.", Options: goalOptions}
	case StepActivity:
		return prompt{Text: "How often do you train right now?", Options: activityOptions}
	case StepHours:
		return prompt{Text: "How many hours can you spend per session (for example, 1 or 1.5)?"}
	case StepEquipment:
		return prompt{Text: "Do you have access to gym equipment?", Options: [][]string{{answerYes, answerNo}}}
	case StepInjuries:
		return prompt{Text: "Any injuries or limitations I should know about? Describe them or tap None.", Options: [][]string{{answerNone}}}
	case StepLevel:
		return prompt{Text: "How many push-ups, dips and pull-ups can you do in one set? Send three numbers, for example: 20 8 5"}
	case StepConfirm:
		return prompt{Text: s.summary(), Options: [][]string{{answerConfirm, answerRestart}}}
	default:
		return prompt{Text: "Your profile is complete."}
	}
}

// answer applies the user's reply. On invalid input the survey stays on the
// same step and the returned prompt explains what is expected.
func (s *survey) answer(text string) (prompt, bool) {
	text = strings.TrimSpace(text)
	p := &s.profile

	switch s.step {
	case StepAge:
		n, ok := parseInt(text, 10, 100)
		if !ok {
			return s.retry("Please enter your age as a number between 10 and 100.")
		}
		p.Age = n
	case StepHeight:
		f, ok := parseFloat(text, 100, 250)
		if !ok {
			return s.retry("Please enter a height between 100 and 250 cm.")
		}
		p.HeightCm = f
	case StepWeight:
		f, ok := parseFloat(text, 30, 300)
		if !ok {
			return s.retry("Please enter a weight between 30 and 300 kg.")
		}
		p.WeightKg = f
		p.UpdateBMI()
	case StepGoal:
		goals := splitList(text)
		if len(goals) == 0 {
			return s.retry("Please tell me at least one goal.")
		}
		p.Goals = strings.Join(goals, ", ")
	case StepActivity:
		if text == "" {
			return s.retry("Please pick how often you train.")
		}
		p.ActivityFrequency = text
	case StepHours:
		f, ok := parseFloat(text, 0.25, 4)
		if !ok {
			return s.retry("Please enter a number of hours between 0.25 and 4.")
		}
		p.AvailableHours = f
	case StepEquipment:
		switch strings.ToLower(text) {
		case "yes", "y":
			p.GymEquipment = true
		case "no", "n":
			p.GymEquipment = false
		default:
			return s.retry("Please answer Yes or No.")
		}
	case StepInjuries:
		if strings.EqualFold(text, answerNone) || text == "" {
			p.Injuries = ""
		} else {
			p.Injuries = text
		}
	case StepLevel:
		counts, ok := parseCounts(text)
		if !ok {
			return s.retry("Please send three numbers: push-ups, dips and pull-ups, for example: 20 8 5")
		}
		p.CurrentPushups, p.CurrentDips, p.CurrentPullups = counts[0], counts[1], counts[2]
	case StepConfirm:
		switch text {
		case answerConfirm:
			s.step = StepDone
			return s.current(), true
		case answerRestart:
			s.step = StepAge
			s.profile = models.UserProfile{UserID: p.UserID, Name: p.Name}
			return s.current(), true
		default:
			return s.retry("Please choose one of the options below.")
		}
	default:
		return s.current(), true
	}

	s.step++
	return s.current(), true
}

func (s *survey) retry(hint string) (prompt, bool) {
	q := s.current()
	q.Text = hint
	return q, false
}

func (s *survey) summary() string {
	p := s.profile
	injuries := p.Injuries
	if injuries == "" {
		injuries = answerNone
	}
	equipment := answerNo
	if p.GymEquipment {
		equipment = answerYes
	}
	return fmt.Sprintf("Let's check your answers:\n\n"+
		"Age: %d\n"+
		"Height: %s cm\n"+
		"Weight: %s kg\n"+
		"BMI: %.1f (%s)\n"+
		"Goals: %s\n"+
		"Training: %s\n"+
		"Session length: %s h\n"+
		"Gym equipment: %s\n"+
		"Injuries: %s\n"+
		"Push-ups / dips / pull-ups: %d / %d / %d\n\n"+
		"Is everything correct?",
		p.Age, trimFloat(p.HeightCm), trimFloat(p.WeightKg), p.BMI, p.BMICategory, p.Goals,
		p.ActivityFrequency, trimFloat(p.AvailableHours), equipment, injuries,
		p.CurrentPushups, p.CurrentDips, p.CurrentPullups)
}

func parseInt(s string, min, max int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}

func parseFloat(s string, min, max float64) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < min || f > max {
		return 0, false
	}
	return f, true
}

func parseCounts(s string) ([3]int, bool) {
	var out [3]int
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '/' || r == '\t'
	})
	if len(fields) != 3 {
		return out, false
	}
	for i, f := range fields {
		n, ok := parseInt(f, 0, 500)
		if !ok {
			return out, false
		}
		out[i] = n
	}
	return out, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
