package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"

	"alfredoptarigan/coach-client/internal/models"
)

const fallbackAnalyzeMessage = "Failed to analyze the CV"

// AnalysisAPI is the CV review side of the coaching backend.
type AnalysisAPI interface {
	Analyze(ctx context.Context, req models.UploadRequest) (*models.AnalyzeResponse, error)
	DownloadReport(ctx context.Context, link models.ReportLink) ([]byte, error)
	ReportURL(link models.ReportLink) string
}

// SessionAPI is the pitch coaching side of the coaching backend.
type SessionAPI interface {
	StartSession(ctx context.Context, userID string) (*models.StartSessionResponse, error)
	SendMessage(ctx context.Context, req models.MessageRequest) (*models.MessageResponse, error)
	PerformAction(ctx context.Context, req models.ActionRequest) (*models.ActionResponse, error)
	SessionHistory(ctx context.Context, sessionID string) (*models.HistoryResponse, error)
}

type APIClient interface {
	AnalysisAPI
	SessionAPI
}

type apiClient struct {
	http    *fiber.Client
	server  string
	timeout time.Duration
}

// NewAPIClient creates a client for the backend at server. A zero
// timeout leaves requests unbounded.
func NewAPIClient(server string, timeout time.Duration) (APIClient, error) {
	normalized, err := normalizeServerURL(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	return &apiClient{
		http: &fiber.Client{
			UserAgent:   "coach-client",
			JSONEncoder: sonic.Marshal,
			JSONDecoder: sonic.Unmarshal,
		},
		server:  normalized,
		timeout: timeout,
	}, nil
}

// normalizeServerURL ensures a scheme and strips any trailing slash.
func normalizeServerURL(server string) (string, error) {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}

	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid server URL")
	}

	return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, strings.TrimRight(u.Path, "/")), nil
}

func (c *apiClient) Analyze(ctx context.Context, req models.UploadRequest) (*models.AnalyzeResponse, error) {
	agent := c.http.Post(c.server + endpointAnalyze)

	// Files must be attached before MultipartForm writes the body.
	agent.FileData(&fiber.FormFile{
		Fieldname: fieldCVFile,
		Name:      req.FileName,
		Content:   req.Content,
	})

	args := fiber.AcquireArgs()
	args.Set(fieldJobDescription, req.JobDescription)
	agent.MultipartForm(args)
	fiber.ReleaseArgs(args)

	code, body, err := c.send(ctx, "analyze", agent)
	if err != nil {
		return nil, err
	}

	if !isOK(code) {
		return nil, &APIError{
			Op:         "analyze",
			StatusCode: code,
			Message:    payloadMessage(body, fallbackAnalyzeMessage),
		}
	}

	var resp models.AnalyzeResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if resp.Status == "" {
		return nil, fmt.Errorf("%w: missing status", ErrMalformedPayload)
	}

	return &resp, nil
}

func (c *apiClient) ReportURL(link models.ReportLink) string {
	return c.server + link.Path
}

func (c *apiClient) DownloadReport(ctx context.Context, link models.ReportLink) ([]byte, error) {
	op := fmt.Sprintf("download %s report", link.Kind)

	code, body, err := c.send(ctx, op, c.http.Get(c.ReportURL(link)))
	if err != nil {
		return nil, err
	}

	if !isOK(code) {
		return nil, &APIError{
			Op:         op,
			StatusCode: code,
			Message:    payloadMessage(body, fmt.Sprintf("%s not found", link.Kind)),
		}
	}

	return body, nil
}

func (c *apiClient) StartSession(ctx context.Context, userID string) (*models.StartSessionResponse, error) {
	var resp models.StartSessionResponse
	if err := c.postJSON(ctx, "start session", endpointStartSession, models.StartSessionRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session_id", ErrMalformedPayload)
	}
	return &resp, nil
}

func (c *apiClient) SendMessage(ctx context.Context, req models.MessageRequest) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	if err := c.postJSON(ctx, "send message", endpointSendMessage, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) PerformAction(ctx context.Context, req models.ActionRequest) (*models.ActionResponse, error) {
	var resp models.ActionResponse
	if err := c.postJSON(ctx, "session action", endpointSessionAction, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) SessionHistory(ctx context.Context, sessionID string) (*models.HistoryResponse, error) {
	endpoint := fmt.Sprintf(endpointSessionHistory, url.PathEscape(sessionID))

	code, body, err := c.send(ctx, "session history", c.http.Get(c.server+endpoint))
	if err != nil {
		return nil, err
	}

	if !isOK(code) {
		return nil, &APIError{
			Op:         "session history",
			StatusCode: code,
			Message:    payloadMessage(body, "Failed to retrieve history"),
		}
	}

	var resp models.HistoryResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &resp, nil
}

func (c *apiClient) postJSON(ctx context.Context, op, endpoint string, in, out interface{}) error {
	agent := c.http.Post(c.server + endpoint)
	agent.JSON(in)

	code, body, err := c.send(ctx, op, agent)
	if err != nil {
		return err
	}

	if !isOK(code) {
		return &APIError{
			Op:         op,
			StatusCode: code,
			Message:    payloadMessage(body, fmt.Sprintf("HTTP error! status: %d", code)),
		}
	}

	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

type agentResult struct {
	code int
	body []byte
	errs []error
}

// send runs the agent and stops waiting when ctx ends. The agent is
// released by Bytes once the exchange completes.
func (c *apiClient) send(ctx context.Context, op string, agent *fiber.Agent) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}

	if c.timeout > 0 {
		agent.Timeout(c.timeout)
	}

	done := make(chan agentResult, 1)
	go func() {
		code, body, errs := agent.Bytes()
		done <- agentResult{code: code, body: body, errs: errs}
	}()

	select {
	case <-ctx.Done():
		return 0, nil, &TransportError{Op: op, Err: ctx.Err()}
	case r := <-done:
		if len(r.errs) > 0 {
			return 0, nil, &TransportError{Op: op, Err: errors.Join(r.errs...)}
		}
		return r.code, r.body, nil
	}
}

func isOK(code int) bool {
	return code >= 200 && code < 300
}

// payloadMessage extracts the message field of an error payload.
func payloadMessage(body []byte, fallback string) string {
	if !gjson.ValidBytes(body) {
		return fallback
	}

	msg := gjson.GetBytes(body, "message")
	if msg.Type != gjson.String || strings.TrimSpace(msg.Str) == "" {
		return fallback
	}
	return msg.Str
}
