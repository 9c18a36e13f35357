// internal/gpt/client.go
package gpt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"fitness-coach/internal/backend"
	"fitness-coach/internal/models"
)

const service = "completion"

// Params are the generation settings fixed per call site.
type Params struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

var (
	ChatParams = Params{Temperature: 0.7, TopP: 0.95, MaxTokens: 4096}
	PlanParams = Params{Temperature: 0.7, TopP: 0.95, MaxTokens: 16384}
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Chat    Params
	Plan    Params
}

type Client struct {
	client *openai.Client
	model  string
	chat   Params
	plan   Params
}

// NewClientWithConfig builds a client for any OpenAI-compatible endpoint.
// Zero-valued params fall back to ChatParams and PlanParams.
func NewClientWithConfig(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		client: openai.NewClientWithConfig(oc),
		model:  "gpt-4o-mini",
		chat:   withDefaults(cfg.Chat, ChatParams),
		plan:   withDefaults(cfg.Plan, PlanParams),
	}
	if cfg.Model != "" {
		c.model = cfg.Model
	}
	return c
}

// Complete sends a fully assembled coach prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.create(ctx, c.chat, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
}

// GenerateWorkoutPlan asks for a 7-day plan document for the profile.
func (c *Client) GenerateWorkoutPlan(ctx context.Context, profile *models.UserProfile) (string, error) {
	return c.create(ctx, c.plan, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: BuildPlanPrompt(profile)},
	})
}

func (c *Client) create(ctx context.Context, p Params, messages []openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		TopP:        p.TopP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", &backend.BackendError{Service: service, StatusCode: http.StatusOK, Message: "no choices in response"}
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &backend.BackendError{Service: service, StatusCode: http.StatusOK, Message: "empty completion"}
	}
	return content, nil
}

// classify maps go-openai failures onto the backend error taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &backend.BackendError{Service: service, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &backend.BackendError{Service: service, StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return backend.Transport(service, err)
}

func withDefaults(p, def Params) Params {
	if p.Temperature == 0 {
		p.Temperature = def.Temperature
	}
	if p.TopP == 0 {
		p.TopP = def.TopP
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = def.MaxTokens
	}
	return p
}

const planFormat = `{
  "planName": "Brief plan name",
  "durationWeeks": 4,
  "overallNotes": "General advice and tips",
  "workoutDays": [
    {
      "day": "Monday",
      "focus": "Upper Body Strength",
      "notes": "Tips for today",
      "exercises": [
        {
          "name": "Push-ups",
          "sets": 3,
          "reps": 12,
          "duration": "N/A",
          "restPeriod": "60 seconds",
          "instructions": "Keep core tight, lower chest to ground",
          "targetMuscles": "Chest, Triceps, Shoulders"
        }
      ]
    }
  ]
}`

// BuildPlanPrompt renders the plan request for a profile.
func BuildPlanPrompt(p *models.UserProfile) string {
	if p == nil {
		p = &models.UserProfile{}
	}
	injuries := p.Injuries
	if strings.TrimSpace(injuries) == "" {
		injuries = "None"
	}
	equipment := "No gym equipment (bodyweight only)"
	if p.GymEquipment {
		equipment = "Has access to gym equipment"
	}
	category := p.BMICategory
	if category == "" && p.BMI > 0 {
		category = models.BMICategory(p.BMI)
	}

	return fmt.Sprintf(
		"You are a professional fitness trainer. Create a personalized 7-day workout plan for:\n\n"+
			"USER PROFILE:\n"+
			"- Name: %s\n"+
			"- Age: %d years\n"+
			"- BMI: %.2f (%s)\n"+
			"- Goal: %s\n"+
			"- Activity Frequency: %s\n"+
			"- Available Time: %.1f hours per session\n"+
			"- Equipment: %s\n"+
			"- Injuries/Limitations: %s\n"+
			"- Current max: %d push-ups, %d dips, %d pull-ups\n\n"+
			"IMPORTANT: Respond ONLY with valid JSON in this exact format (no markdown, no code blocks, just raw JSON):\n\n"+
			"%s\n\n"+
			"Create a complete 7-day plan (Monday-Sunday) with 4-6 exercises per day. "+
			"Consider rest days if needed. For cardio/endurance exercises, use 'duration' instead of 'reps'. "+
			"Make it progressive and suitable for the user's BMI category and goals.",
		p.Name, p.Age, p.BMI, category, p.Goals, p.ActivityFrequency, p.AvailableHours,
		equipment, injuries, p.CurrentPushups, p.CurrentDips, p.CurrentPullups, planFormat,
	)
}
