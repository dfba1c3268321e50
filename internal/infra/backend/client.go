package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"mindgap-tutor/internal/domain"
)

// Client talks to the content/progress backend: lesson and quiz generation,
// performance reports and the stats dashboard.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a backend client with sane timeouts.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   3 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

type topicRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty,omitempty"`
}

type lessonResponse struct {
	Lesson string `json:"lesson"`
}

type performanceRequest struct {
	Topic string `json:"topic"`
	Score int    `json:"score"`
	Total int    `json:"total"`
	Level string `json:"level"`
}

// GenerateLesson asks the backend for a micro-lesson on topic.
func (c *Client) GenerateLesson(ctx context.Context, req domain.QuizRequest) (string, error) {
	var resp lessonResponse
	if err := c.do(ctx, http.MethodPost, "/api/lesson", topicRequest{Topic: req.Topic, Difficulty: string(req.Difficulty)}, &resp); err != nil {
		return "", fmt.Errorf("generate lesson: %w", err)
	}
	return resp.Lesson, nil
}

// GenerateQuiz asks the backend for the questions of topic. The backend answers
// either {"questions": [...]} or a bare array.
func (c *Client) GenerateQuiz(ctx context.Context, req domain.QuizRequest) ([]domain.QuestionRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/quiz", topicRequest{Topic: req.Topic, Difficulty: string(req.Difficulty)}, &raw); err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	return decodeQuestions(raw)
}

func decodeQuestions(raw json.RawMessage) ([]domain.QuestionRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var questions []domain.QuestionRecord
		if err := json.Unmarshal(trimmed, &questions); err != nil {
			return nil, fmt.Errorf("decode quiz: %w", err)
		}
		return questions, nil
	}
	var wrapped struct {
		Questions []domain.QuestionRecord `json:"questions"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	return wrapped.Questions, nil
}

// LoadQuiz implements the quiz loader contract: one lesson plus its questions.
func (c *Client) LoadQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	lesson, err := c.GenerateLesson(ctx, req)
	if err != nil {
		return domain.Quiz{}, err
	}
	questions, err := c.GenerateQuiz(ctx, req)
	if err != nil {
		return domain.Quiz{}, err
	}
	return domain.Quiz{
		ID:         req.Key(),
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Lesson:     lesson,
		Questions:  questions,
	}, nil
}

// Report saves a finished quiz result for progress tracking.
func (c *Client) Report(ctx context.Context, completion domain.Completion) error {
	body := performanceRequest{
		Topic: completion.Topic,
		Score: completion.Score,
		Total: completion.Total,
		Level: string(completion.Difficulty),
	}
	if err := c.do(ctx, http.MethodPost, "/api/save-performance", body, nil); err != nil {
		return fmt.Errorf("save performance: %w", err)
	}
	return nil
}

// Stats fetches weak topics and performance history.
func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return domain.Stats{}, fmt.Errorf("fetch stats: %w", err)
	}
	return stats, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		reqBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("backend error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
