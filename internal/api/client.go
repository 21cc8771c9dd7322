package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HEALTH_PATH          = "/api/health"
	LOGIN_PATH           = "/api/auth/login"
	REGISTER_PATH        = "/api/auth/register"
	ME_PATH              = "/api/auth/me"
	SUBJECTS_PATH        = "/api/subjects"
	STUDENTS_PATH        = "/api/students"
	RESULTS_PATH         = "/api/results"
	STUDENT_RESULTS_PATH = "/api/results/student/"
	STATS_PATH           = "/api/results/summary"
)

const maxBodySize = 1 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, HEALTH_PATH, "", nil, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResponse, error) {
	if err := Validate(creds); err != nil {
		return LoginResponse{}, err
	}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, LOGIN_PATH, "", creds, &out); err != nil {
		return LoginResponse{}, err
	}
	if out.AccessToken == "" {
		return LoginResponse{}, fmt.Errorf("login response has no access token")
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	if err := Validate(req); err != nil {
		return RegisterResponse{}, err
	}
	var out RegisterResponse
	err := c.do(ctx, http.MethodPost, REGISTER_PATH, "", req, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, ME_PATH, token, nil, &out)
	return out, err
}

func (c *Client) Subjects(ctx context.Context) ([]Subject, error) {
	var out subjectsEnvelope
	if err := c.do(ctx, http.MethodGet, SUBJECTS_PATH, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Subjects, nil
}

func (c *Client) CreateSubject(ctx context.Context, token string, subject NewSubject) (SubjectResponse, error) {
	if err := Validate(subject); err != nil {
		return SubjectResponse{}, err
	}
	var out SubjectResponse
	err := c.do(ctx, http.MethodPost, SUBJECTS_PATH, token, subject, &out)
	return out, err
}

func (c *Client) Students(ctx context.Context, token string) ([]Student, error) {
	var out studentsEnvelope
	if err := c.do(ctx, http.MethodGet, STUDENTS_PATH, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Students, nil
}

func (c *Client) StudentResults(ctx context.Context, token, studentID string) (ResultsSummary, error) {
	if studentID == "" {
		return ResultsSummary{}, &ValidationError{Fields: []string{"student_id"}, Message: "student_id is required"}
	}
	var out ResultsSummary
	err := c.do(ctx, http.MethodGet, STUDENT_RESULTS_PATH+url.PathEscape(studentID), token, nil, &out)
	return out, err
}

func (c *Client) AddResult(ctx context.Context, token string, result NewResult) (ResultResponse, error) {
	if err := Validate(result); err != nil {
		return ResultResponse{}, err
	}
	var out ResultResponse
	err := c.do(ctx, http.MethodPost, RESULTS_PATH, token, result, &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context, token string) (Stats, error) {
	var out Stats
	err := c.do(ctx, http.MethodGet, STATS_PATH, token, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s body: %w", path, err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.With().Str("request_id", requestID).Str("method", method).Str("path", path).Logger()
	log.Debug().Msg("Sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			log.Debug().Err(err).Msg("Request cancelled")
		} else {
			log.Warn().Err(err).Msg("Request failed before a response arrived")
		}
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		log.Warn().Err(err).Int("status", resp.StatusCode).Msg("Failed to read response body")
		return &TransportError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Detail: extractDetail(resp.Header.Get("Content-Type"), respBody),
		}
		log.Debug().Int("status", resp.StatusCode).Str("detail", apiErr.Detail).Msg("Request rejected")
		return apiErr
	}

	log.Debug().Int("status", resp.StatusCode).Msg("Request succeeded")

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		log.Error().Err(err).Int("status", resp.StatusCode).Msg("Failed to decode response")
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
