package adaptive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathwise/compass-backend/internal/model"
)

// Client is the HTTP implementation of Adapter against the external
// engine's REST contract:
//
//	POST /v1/sessions                      -> {session_id, question}
//	GET  /v1/sessions/{id}                 -> {session_id, question, progress}
//	POST /v1/sessions/{id}/answers {choice}-> {result, question?, progress, summary?}
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	sessionID string
	current   *model.Question
	progress  Progress
	summary   *model.AdaptiveSummary
	correct   int
}

// NewClient creates an engine client for one student's session.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("component", "adaptive_client").Logger(),
	}
}

type engineQuestion struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Difficulty int      `json:"difficulty"`
	Category   string   `json:"category"`
}

type engineState struct {
	SessionID string          `json:"session_id"`
	Question  *engineQuestion `json:"question,omitempty"`
	Progress  Progress        `json:"progress"`
	Result    *SubmitResult   `json:"result,omitempty"`
	Summary   *struct {
		QuestionsAnswered int `json:"questions_answered"`
		CorrectAnswers    int `json:"correct_answers"`
		FinalDifficulty   int `json:"final_difficulty"`
	} `json:"summary,omitempty"`
}

// StartTest implements Adapter.
func (c *Client) StartTest(ctx context.Context) error {
	var state engineState
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", nil, &state); err != nil {
		return fmt.Errorf("start adaptive test: %w", err)
	}
	c.apply(&state)
	c.correct = 0
	c.log.Info().Str("session_id", c.sessionID).Msg("Adaptive session started")
	return nil
}

// ResumeTest implements Adapter.
func (c *Client) ResumeTest(ctx context.Context, sessionID string) error {
	var state engineState
	if err := c.do(ctx, http.MethodGet, "/v1/sessions/"+sessionID, nil, &state); err != nil {
		return fmt.Errorf("resume adaptive test: %w", err)
	}
	c.apply(&state)
	c.log.Info().Str("session_id", c.sessionID).Msg("Adaptive session resumed")
	return nil
}

// CheckAndResumeSession implements Adapter. A session the engine no
// longer knows is reported as not-resumable, not as an error.
func (c *Client) CheckAndResumeSession(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	err := c.ResumeTest(ctx, sessionID)
	if err == nil {
		return true, nil
	}
	var httpErr *statusError
	if errors.As(err, &httpErr) && httpErr.code == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

// SubmitAnswer implements Adapter.
func (c *Client) SubmitAnswer(ctx context.Context, choice string) (SubmitResult, error) {
	if c.sessionID == "" {
		return SubmitResult{}, ErrNoSession
	}
	body := map[string]string{"choice": choice}
	var state engineState
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+c.sessionID+"/answers", body, &state); err != nil {
		return SubmitResult{}, fmt.Errorf("submit adaptive answer: %w", err)
	}
	c.apply(&state)
	if state.Result == nil {
		return SubmitResult{}, fmt.Errorf("engine returned no result for session %s", c.sessionID)
	}
	if state.Result.IsCorrect {
		c.correct++
	}
	return *state.Result, nil
}

func (c *Client) SessionID() string { return c.sessionID }

func (c *Client) Progress() Progress { return c.progress }

func (c *Client) CurrentQuestion() *model.Question { return c.current }

func (c *Client) Summary() *model.AdaptiveSummary { return c.summary }

func (c *Client) apply(state *engineState) {
	if state.SessionID != "" {
		c.sessionID = state.SessionID
	}
	c.progress = state.Progress
	if state.Question != nil {
		c.current = &model.Question{
			ID:         state.Question.ID,
			Text:       state.Question.Text,
			Type:       model.QuestionTypeAdaptive,
			Options:    state.Question.Options,
			Category:   state.Question.Category,
			Difficulty: state.Question.Difficulty,
		}
	} else {
		c.current = nil
	}
	if state.Summary != nil {
		c.summary = &model.AdaptiveSummary{
			SessionID:         c.sessionID,
			QuestionsAnswered: state.Summary.QuestionsAnswered,
			CorrectAnswers:    state.Summary.CorrectAnswers,
			FinalDifficulty:   state.Summary.FinalDifficulty,
		}
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("adaptive engine returned %d: %s", e.code, e.body)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &statusError{code: resp.StatusCode, body: buf.String()}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode engine response: %w", err)
	}
	return nil
}
