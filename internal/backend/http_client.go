package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/model"
)

// TokenSource supplies the bearer token attached to backend calls. An empty
// token means the call goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// HTTPClient is the JSON-over-HTTP implementation of Service.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     zerolog.Logger
}

// NewHTTPClient creates a backend client against the given base URL.
func NewHTTPClient(baseURL string, httpClient *http.Client, tokens TokenSource, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		log:     log.With().Str("component", "backend_client").Logger(),
	}
}

var _ Service = (*HTTPClient)(nil)

// StartExam creates a new attempt and returns its server-assigned ID.
func (c *HTTPClient) StartExam(ctx context.Context, course string) (int64, error) {
	var out struct {
		AttemptID int64 `json:"attemptId"`
	}
	body := map[string]string{"course": course}
	if err := c.call(ctx, http.MethodPost, "/exam/start", body, &out); err != nil {
		return 0, fmt.Errorf("start exam: %w", err)
	}
	return out.AttemptID, nil
}

// GetExamQuestion fetches the review payload for one question of an attempt.
func (c *HTTPClient) GetExamQuestion(ctx context.Context, attemptID, questionID int64) (*model.ExamQuestionReview, error) {
	var out model.ExamQuestionReview
	path := fmt.Sprintf("/exam/attempts/%d/questions/%d", attemptID, questionID)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("get exam question: %w", err)
	}
	return &out, nil
}

// SubmitExam transmits the full answer set and returns the scored attempt.
func (c *HTTPClient) SubmitExam(ctx context.Context, attemptID int64, answers []model.UserAnswer) (*model.ExamAttempt, error) {
	var out model.ExamAttempt
	path := fmt.Sprintf("/exam/attempts/%d/submit", attemptID)
	body := map[string]interface{}{"answers": answers}
	if err := c.call(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, fmt.Errorf("submit exam: %w", err)
	}
	return &out, nil
}

// GetAttempts returns the caller's attempt history.
func (c *HTTPClient) GetAttempts(ctx context.Context) ([]model.ExamAttempt, error) {
	var out []model.ExamAttempt
	if err := c.call(ctx, http.MethodGet, "/exam/attempts", nil, &out); err != nil {
		return nil, fmt.Errorf("get attempts: %w", err)
	}
	return out, nil
}

// GetQuestions returns practice questions for a course/chapter.
func (c *HTTPClient) GetQuestions(ctx context.Context, course, chapter string, limit, offset *int64) ([]model.Question, error) {
	q := url.Values{}
	q.Set("course", course)
	q.Set("chapter", chapter)
	if limit != nil {
		q.Set("limit", strconv.FormatInt(*limit, 10))
	}
	if offset != nil {
		q.Set("offset", strconv.FormatInt(*offset, 10))
	}

	var out []model.Question
	if err := c.call(ctx, http.MethodGet, "/practice/questions?"+q.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	return out, nil
}

// SubmitAnswer records a single practice answer and reports correctness.
func (c *HTTPClient) SubmitAnswer(ctx context.Context, questionID int64, selectedOption string) (bool, error) {
	var out struct {
		Correct bool `json:"correct"`
	}
	body := map[string]interface{}{
		"questionId":     questionID,
		"selectedOption": selectedOption,
	}
	if err := c.call(ctx, http.MethodPost, "/practice/answers", body, &out); err != nil {
		return false, fmt.Errorf("submit answer: %w", err)
	}
	return out.Correct, nil
}

// ToggleBookmark flips the bookmark state of a question.
func (c *HTTPClient) ToggleBookmark(ctx context.Context, questionID int64) error {
	body := map[string]interface{}{"questionId": questionID}
	if err := c.call(ctx, http.MethodPost, "/practice/bookmarks/toggle", body, nil); err != nil {
		return fmt.Errorf("toggle bookmark: %w", err)
	}
	return nil
}

// GetBookmarkedQuestions returns the caller's bookmarked questions.
func (c *HTTPClient) GetBookmarkedQuestions(ctx context.Context) ([]model.Question, error) {
	var out []model.Question
	if err := c.call(ctx, http.MethodGet, "/practice/bookmarks", nil, &out); err != nil {
		return nil, fmt.Errorf("get bookmarked questions: %w", err)
	}
	return out, nil
}

// GetPracticeProgress returns the per-chapter progress summary.
func (c *HTTPClient) GetPracticeProgress(ctx context.Context, course, chapter string) (*model.PracticeProgress, error) {
	q := url.Values{}
	q.Set("course", course)
	q.Set("chapter", chapter)

	var out model.PracticeProgress
	if err := c.call(ctx, http.MethodGet, "/practice/progress?"+q.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("get practice progress: %w", err)
	}
	return &out, nil
}

// call performs one JSON round trip. Transport errors and 5xx responses are
// classified as ErrServiceUnavailable so callers can degrade (cache fallback,
// outbox enqueue); 4xx responses come back as plain errors.
func (c *HTTPClient) call(ctx context.Context, method, path string, in, out interface{}) error {
	var reqBody io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("Backend unreachable")
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: backend returned %d", ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
