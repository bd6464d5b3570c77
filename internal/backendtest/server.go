// Package backendtest runs a scripted coaching backend on a loopback
// port for client tests.
package backendtest

import (
	"io"
	"net"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/coach-client/internal/models"
)

// Upload is what the fake saw on the analyze endpoint.
type Upload struct {
	FileName       string
	Content        []byte
	JobDescription string
}

// Coach scripts every endpoint of the backend. Zero status fields mean
// 200. Fields must be set before Start.
type Coach struct {
	AnalyzeStatus int
	Analyze       models.AnalyzeResponse
	AnalyzeRaw    string

	Reports map[models.ReportKind]string

	StartStatus int
	SessionID   string
	Welcome     string

	MessageStatus int
	Replies       []models.MessageResponse

	ActionStatus  int
	ActionResults map[models.ActionKind]string

	History []models.HistoryEntry

	mu       sync.Mutex
	hits     map[string]int
	uploads  []Upload
	messages []models.MessageRequest
	actions  []models.ActionRequest
	starts   []models.StartSessionRequest
}

type Server struct {
	URL string
	app *fiber.App
}

// Start serves c until the test ends.
func Start(t testing.TB, c *Coach) *Server {
	t.Helper()

	app := fiber.New(fiber.Config{
		AppName:               "coach backend fake",
		DisableStartupMessage: true,
		Immutable:             true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.ConfigStd.Unmarshal,
		ErrorHandler:          errorHandler,
	})
	c.register(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = app.Shutdown()
	})

	return &Server{URL: "http://" + ln.Addr().String(), app: app}
}

// DeadURL returns an address nothing listens on.
func DeadURL(t testing.TB) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return "http://" + addr
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"detail": err.Error(),
	})
}

func (c *Coach) register(app *fiber.App) {
	app.Use(func(ctx *fiber.Ctx) error {
		c.mu.Lock()
		if c.hits == nil {
			c.hits = map[string]int{}
		}
		c.hits[ctx.Path()]++
		c.mu.Unlock()
		return ctx.Next()
	})

	app.Post("/api/analyze/", c.handleAnalyze)
	app.Get("/api/:task", c.handleReport)
	app.Post("/start_session", c.handleStart)
	app.Post("/send_message", c.handleMessage)
	app.Post("/session_action", c.handleAction)
	app.Get("/session_history/:id", c.handleHistory)
}

// Hits counts requests to path.
func (c *Coach) Hits(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

// TotalHits counts every request served.
func (c *Coach) TotalHits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.hits {
		total += n
	}
	return total
}

func (c *Coach) Uploads() []Upload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Upload(nil), c.uploads...)
}

func (c *Coach) Messages() []models.MessageRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.MessageRequest(nil), c.messages...)
}

func (c *Coach) Actions() []models.ActionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ActionRequest(nil), c.actions...)
}

func (c *Coach) Starts() []models.StartSessionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.StartSessionRequest(nil), c.starts...)
}

func statusOr(code int) int {
	if code == 0 {
		return fiber.StatusOK
	}
	return code
}

func (c *Coach) handleAnalyze(ctx *fiber.Ctx) error {
	upload := Upload{JobDescription: ctx.FormValue("job_description")}

	if fh, err := ctx.FormFile("cv_file"); err == nil {
		upload.FileName = fh.Filename
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		if upload.Content, err = io.ReadAll(f); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.uploads = append(c.uploads, upload)
	c.mu.Unlock()

	ctx.Status(statusOr(c.AnalyzeStatus))
	if c.AnalyzeRaw != "" {
		ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return ctx.SendString(c.AnalyzeRaw)
	}
	return ctx.JSON(c.Analyze)
}

func (c *Coach) handleReport(ctx *fiber.Ctx) error {
	task := ctx.Params("task")

	report, ok := c.Reports[models.ReportKind(task)]
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Status:  "error",
			Message: task + " not found",
		})
	}

	ctx.Set(fiber.HeaderContentType, "text/markdown")
	return ctx.SendString(report)
}

func (c *Coach) handleStart(ctx *fiber.Ctx) error {
	var req models.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}

	c.mu.Lock()
	c.starts = append(c.starts, req)
	c.mu.Unlock()

	if code := statusOr(c.StartStatus); code != fiber.StatusOK {
		return fiber.NewError(code, "Failed to start session")
	}

	return ctx.JSON(models.StartSessionResponse{
		SessionID:      c.SessionID,
		WelcomeMessage: c.Welcome,
	})
}

func (c *Coach) handleMessage(ctx *fiber.Ctx) error {
	var req models.MessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}

	c.mu.Lock()
	c.messages = append(c.messages, req)
	n := len(c.messages)
	c.mu.Unlock()

	if code := statusOr(c.MessageStatus); code != fiber.StatusOK {
		return fiber.NewError(code, "Failed to process message")
	}
	if req.SessionID != c.SessionID {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	if len(c.Replies) == 0 {
		return ctx.JSON(models.MessageResponse{Response: "ok"})
	}

	idx := n - 1
	if idx >= len(c.Replies) {
		idx = len(c.Replies) - 1
	}
	return ctx.JSON(c.Replies[idx])
}

func (c *Coach) handleAction(ctx *fiber.Ctx) error {
	var req models.ActionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}

	c.mu.Lock()
	c.actions = append(c.actions, req)
	c.mu.Unlock()

	if code := statusOr(c.ActionStatus); code != fiber.StatusOK {
		return fiber.NewError(code, "Failed to perform action")
	}

	result, ok := c.ActionResults[req.Action]
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid action")
	}
	return ctx.JSON(models.ActionResponse{Result: result, Action: req.Action})
}

func (c *Coach) handleHistory(ctx *fiber.Ctx) error {
	if ctx.Params("id") != c.SessionID {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	return ctx.JSON(models.HistoryResponse{History: c.History})
}
