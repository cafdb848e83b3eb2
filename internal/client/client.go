// Package client is a Go consumer of the CourseLoom HTTP API with
// transparent session refresh: when a request comes back 401, the
// client rotates the refresh-token cookie once and replays the request
// with the new access token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// ErrServiceUnavailable wraps transport-level failures.
var ErrServiceUnavailable = errors.New("service unavailable")

// APIError is a non-2xx response decoded from the API envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// envelope mirrors the server's response shape.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to one CourseLoom deployment on behalf of one session.
// The refresh cookie lives in the client's cookie jar; the access token
// is held in memory and replaced on every refresh. Safe for concurrent
// use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
}

// New creates a Client. A nil httpClient gets a jar-equipped default;
// a caller-supplied client must carry its own cookie jar or refresh
// will not work.
func New(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Jar: jar, Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Login authenticates and primes the session: access token in memory,
// refresh cookie in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (*model.Account, error) {
	body := model.LoginRequest{Email: email, Password: password}

	var resp model.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", body, &resp); err != nil {
		return nil, err
	}

	c.setAccessToken(resp.AccessToken)
	return &resp.Account, nil
}

// Logout revokes the session server-side and drops the access token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	c.setAccessToken("")
	return err
}

// Me fetches the authenticated account.
func (c *Client) Me(ctx context.Context) (*model.Account, error) {
	var resp struct {
		Account model.Account `json:"account"`
	}
	if err := c.doAuthed(ctx, http.MethodGet, "/api/v1/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Account, nil
}

// ListCourses fetches one page of the published catalog.
func (c *Client) ListCourses(ctx context.Context, page, perPage int) ([]model.Course, error) {
	path := fmt.Sprintf("/api/v1/courses?page=%d&per_page=%d", page, perPage)

	var resp struct {
		Courses []model.Course `json:"courses"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Courses, nil
}

// GetQuizQuestions fetches a quiz's questions with answers stripped.
func (c *Client) GetQuizQuestions(ctx context.Context, quizID string) ([]model.QuestionForStudent, error) {
	var resp struct {
		Questions []model.QuestionForStudent `json:"questions"`
	}
	if err := c.doAuthed(ctx, http.MethodGet, "/api/v1/quizzes/"+quizID+"/questions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// SubmitQuiz submits the answer set for grading.
func (c *Client) SubmitQuiz(ctx context.Context, quizID string, req *model.SubmitQuizRequest) (*model.QuizAttempt, error) {
	var resp struct {
		Attempt model.QuizAttempt `json:"attempt"`
	}
	if err := c.doAuthed(ctx, http.MethodPost, "/api/v1/quizzes/"+quizID+"/submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Attempt, nil
}

// GetQuizResult fetches the graded breakdown of the caller's attempt.
func (c *Client) GetQuizResult(ctx context.Context, quizID string) (*model.QuizResult, error) {
	var resp struct {
		Result model.QuizResult `json:"result"`
	}
	if err := c.doAuthed(ctx, http.MethodGet, "/api/v1/quizzes/"+quizID+"/result", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

// ─── Session plumbing ───────────────────────────────────────────────────────

func (c *Client) setAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) getAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// refresh rotates the refresh cookie and installs the new access token.
// The server replaces the cookie in the same response, so the jar ends
// up holding the successor token.
func (c *Client) refresh(ctx context.Context) error {
	var resp model.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/refresh", nil, &resp); err != nil {
		return err
	}
	c.setAccessToken(resp.AccessToken)
	return nil
}

// doAuthed performs an authenticated request. On a 401 it refreshes the
// session once and replays the request; the budget is one retry per
// call, so a refresh that still yields 401 surfaces the error instead
// of looping.
func (c *Client) doAuthed(ctx context.Context, method, path string, requestBody, responseBody any) error {
	err := c.doJSONWithToken(ctx, method, path, requestBody, responseBody, c.getAccessToken())

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		return err
	}

	if refreshErr := c.refresh(ctx); refreshErr != nil {
		// The original 401 is the caller's signal to re-authenticate.
		return err
	}

	return c.doJSONWithToken(ctx, method, path, requestBody, responseBody, c.getAccessToken())
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody, responseBody any) error {
	return c.doJSONWithToken(ctx, method, path, requestBody, responseBody, "")
}

func (c *Client) doJSONWithToken(ctx context.Context, method, path string, requestBody, responseBody any, token string) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(response.Body).Decode(&env)

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: response.StatusCode}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return apiErr
	}

	if responseBody == nil {
		return nil
	}
	if decodeErr != nil {
		return decodeErr
	}
	return json.Unmarshal(env.Data, responseBody)
}
