package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"alfredoptarigan/coach-client/internal/models"
)

const (
	ApologyConnect = "Sorry, there was an error connecting to the AI coach. Please restart the session and try again."
	ApologySend    = "Sorry, there was an error communicating with the AI coach."

	ExportFileName = "startup_pitch.txt"
)

// ApologyAction is appended to the transcript when an action fails.
func ApologyAction(kind models.ActionKind) string {
	return fmt.Sprintf("Sorry, there was an error generating the %s.", kind.Subject())
}

// ActionPanel holds the latest qa/feedback result.
type ActionPanel struct {
	Visible bool
	Kind    models.ActionKind
	Title   string
	Content string
}

// CoachState is a snapshot of everything the chat client shows.
type CoachState struct {
	SessionID      string
	Transcript     []models.ChatMessage
	PreviewVisible bool
	CompletePitch  string
	Action         ActionPanel
}

func (s CoachState) started(sessionID string) CoachState {
	s.SessionID = sessionID
	return s
}

// appended copies the transcript so earlier snapshots stay untouched.
func (s CoachState) appended(sender models.Sender, text string) CoachState {
	transcript := make([]models.ChatMessage, len(s.Transcript), len(s.Transcript)+1)
	copy(transcript, s.Transcript)
	s.Transcript = append(transcript, models.ChatMessage{Sender: sender, Text: text})
	return s
}

func (s CoachState) pitchCompleted(pitch string) CoachState {
	s.CompletePitch = pitch
	s.PreviewVisible = true
	return s
}

func (s CoachState) actionShown(kind models.ActionKind, content string) CoachState {
	s.Action = ActionPanel{
		Visible: true,
		Kind:    kind,
		Title:   kind.Title(),
		Content: content,
	}
	return s
}

type CoachService interface {
	Initialize(ctx context.Context) error
	SendMessage(ctx context.Context, text string) error
	PerformAction(ctx context.Context, kind models.ActionKind) error
	ExportPitch() (string, error)
	History(ctx context.Context) ([]models.HistoryEntry, error)
	State() CoachState
	Subscribe(fn func(CoachState))
}

type coachService struct {
	api         SessionAPI
	worker      Worker
	storage     StorageService
	userID      string
	mu          sync.Mutex
	session     *models.Session
	state       CoachState
	subscribers []func(CoachState)
}

// NewCoachService wires the chat client. A nil worker lets concurrent
// sends race; responses are then applied in arrival order.
func NewCoachService(api SessionAPI, worker Worker, storage StorageService, userID string) CoachService {
	return &coachService{
		api:     api,
		worker:  worker,
		storage: storage,
		userID:  userID,
	}
}

// PrepareInput trims raw input. ok is false when nothing should be sent,
// in which case the input field keeps its contents.
func PrepareInput(raw string) (message string, ok bool) {
	message = strings.TrimSpace(raw)
	return message, message != ""
}

func (c *coachService) Subscribe(fn func(CoachState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

func (c *coachService) State() CoachState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// transition applies fn and publishes the result. Subscribers run under
// the lock and must not call back into the service.
func (c *coachService) transition(fn func(CoachState) CoachState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = fn(c.state)
	for _, sub := range c.subscribers {
		sub(c.state)
	}
}

func (c *coachService) say(sender models.Sender, text string) {
	c.transition(func(s CoachState) CoachState { return s.appended(sender, text) })
}

func (c *coachService) activeSession() (models.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return models.Session{}, false
	}
	return *c.session, true
}

// Initialize starts the backend session. Calling it again once a session
// exists does nothing.
func (c *coachService) Initialize(ctx context.Context) error {
	if _, ok := c.activeSession(); ok {
		return nil
	}

	resp, err := c.api.StartSession(ctx, c.userID)
	if err != nil {
		log.Printf("❌ Error initializing session: %v\n", err)
		c.say(models.SenderCoach, ApologyConnect)
		return err
	}

	c.mu.Lock()
	c.session = &models.Session{ID: resp.SessionID, UserID: c.userID}
	c.mu.Unlock()

	log.Printf("✅ Coaching session %s started\n", resp.SessionID)
	c.transition(func(s CoachState) CoachState {
		return s.started(resp.SessionID).appended(models.SenderCoach, resp.WelcomeMessage)
	})
	return nil
}

func (c *coachService) SendMessage(ctx context.Context, text string) error {
	session, ok := c.activeSession()
	if !ok {
		log.Println("❌ No active session, message not sent")
		return ErrNoActiveSession
	}

	c.say(models.SenderUser, text)

	var callErr error
	err := c.dispatch(ctx, "send_message", func(ctx context.Context) {
		resp, err := c.api.SendMessage(ctx, models.MessageRequest{
			SessionID: session.ID,
			Message:   text,
			UserID:    c.userID,
		})
		if err != nil {
			callErr = err
			return
		}
		c.applyReply(resp)
	})
	if err == nil {
		err = callErr
	}

	if err != nil {
		log.Printf("❌ Error sending message: %v\n", err)
		c.say(models.SenderCoach, ApologySend)
		return err
	}
	return nil
}

func (c *coachService) applyReply(resp *models.MessageResponse) {
	pitch, complete := resp.FinishedPitch()
	if complete {
		c.mu.Lock()
		if c.session != nil {
			c.session.CompletePitch = pitch
			c.session.HasPitch = true
		}
		c.mu.Unlock()
	}

	c.transition(func(s CoachState) CoachState {
		s = s.appended(models.SenderCoach, resp.Response)
		if complete {
			s = s.pitchCompleted(pitch)
		}
		return s
	})
}

func (c *coachService) PerformAction(ctx context.Context, kind models.ActionKind) error {
	session, ok := c.activeSession()
	if !ok {
		log.Printf("❌ No active session, %s action skipped\n", kind)
		return ErrNoActiveSession
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}

	var callErr error
	err := c.dispatch(ctx, "session_action:"+string(kind), func(ctx context.Context) {
		resp, err := c.api.PerformAction(ctx, models.ActionRequest{
			SessionID: session.ID,
			Action:    kind,
			UserID:    c.userID,
		})
		if err != nil {
			callErr = err
			return
		}
		c.transition(func(s CoachState) CoachState { return s.actionShown(kind, resp.Result) })
	})
	if err == nil {
		err = callErr
	}

	if err != nil {
		log.Printf("❌ Error performing %s action: %v\n", kind, err)
		c.say(models.SenderCoach, ApologyAction(kind))
		return err
	}
	return nil
}

// ExportPitch writes the completed pitch verbatim to startup_pitch.txt.
func (c *coachService) ExportPitch() (string, error) {
	session, ok := c.activeSession()
	if !ok || !session.HasPitch {
		return "", ErrNoCompletePitch
	}

	path, err := c.storage.SaveFile(ExportFileName, []byte(session.CompletePitch))
	if err != nil {
		return "", fmt.Errorf("failed to export pitch: %w", err)
	}

	log.Printf("💾 Pitch exported to %s\n", path)
	return path, nil
}

func (c *coachService) History(ctx context.Context) ([]models.HistoryEntry, error) {
	session, ok := c.activeSession()
	if !ok {
		log.Println("❌ No active session, history unavailable")
		return nil, ErrNoActiveSession
	}

	resp, err := c.api.SessionHistory(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}
	return resp.History, nil
}

func (c *coachService) dispatch(ctx context.Context, name string, job Job) error {
	if c.worker == nil {
		job(ctx)
		return nil
	}
	return c.worker.Run(ctx, name, job)
}
