package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bkoval/fitpulse/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// Message is one turn of a coach conversation. The app sends the whole
// conversation with every request; nothing is kept server side.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PlanDay struct {
	Day      string   `json:"day"`
	Focus    string   `json:"focus"`
	Workouts []string `json:"workouts"`
}

type WorkoutPlan struct {
	Goal          string    `json:"goal"`
	Level         string    `json:"level"`
	MinutesPerDay int       `json:"minutesPerDay"`
	Days          []PlanDay `json:"days"`
	CoachNote     string    `json:"coachNote"`
	GeneratedByAI bool      `json:"generatedByAi"`
}

type chatRequest struct {
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type planRequest struct {
	Goal          string `json:"goal"`
	Level         string `json:"level"`
	MinutesPerDay int    `json:"minutesPerDay"`
}

// Client talks to the coach AI service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// SendMessage sends the conversation and returns the coach's reply.
func (c *Client) SendMessage(ctx context.Context, conversation []Message) (reply string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coachClient.sendMessage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("conversation.len", len(conversation)))

	respBytes, err := c.post(ctx, c.baseURL+"/v1/chat", chatRequest{Messages: conversation})
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return "", fmt.Errorf("unmarshal coach reply: %w", err)
	}
	if resp.Reply == "" {
		return "", fmt.Errorf("coach reply empty")
	}
	return resp.Reply, nil
}

// GenerateWorkoutPlan asks the coach for a week plan for the given goal,
// fitness level and daily minutes budget.
func (c *Client) GenerateWorkoutPlan(ctx context.Context, goal, level string, minutesPerDay int) (plan WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coachClient.generateWorkoutPlan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("goal", goal),
		attribute.String("level", level),
	)

	respBytes, err := c.post(ctx, c.baseURL+"/v1/plan", planRequest{
		Goal:          goal,
		Level:         level,
		MinutesPerDay: minutesPerDay,
	})
	if err != nil {
		return WorkoutPlan{}, err
	}

	if err := json.Unmarshal(respBytes, &plan); err != nil {
		return WorkoutPlan{}, fmt.Errorf("unmarshal coach plan: %w", err)
	}
	if len(plan.Days) == 0 {
		return WorkoutPlan{}, fmt.Errorf("coach plan has no days")
	}

	plan.GeneratedByAI = true
	return plan, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal coach request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coach api status: %s", resp.Status)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read coach response bytes: %w", err)
	}
	return respBytes, nil
}
