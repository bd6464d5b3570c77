package models

type StartSessionRequest struct {
	UserID string `json:"user_id"`
}

type StartSessionResponse struct {
	SessionID      string `json:"session_id"`
	WelcomeMessage string `json:"welcome_message"`
}

type MessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
}

type MessageResponse struct {
	Response        string  `json:"response"`
	IsPitchComplete bool    `json:"is_pitch_complete"`
	CompletePitch   *string `json:"complete_pitch,omitempty"`
}

// FinishedPitch reports the completed pitch when the backend signals
// completion and supplies a non-empty text.
func (r *MessageResponse) FinishedPitch() (string, bool) {
	if !r.IsPitchComplete || r.CompletePitch == nil || *r.CompletePitch == "" {
		return "", false
	}
	return *r.CompletePitch, true
}

type ActionKind string

const (
	ActionQA       ActionKind = "qa"
	ActionFeedback ActionKind = "feedback"
)

func (k ActionKind) Valid() bool {
	return k == ActionQA || k == ActionFeedback
}

// Title is the heading of the results panel for this action.
func (k ActionKind) Title() string {
	if k == ActionQA {
		return "Investor Q&A Simulation"
	}
	return "Pitch Clarity Feedback"
}

// Subject names what the action produces, for apology messages.
func (k ActionKind) Subject() string {
	if k == ActionQA {
		return "investor questions"
	}
	return "pitch feedback"
}

type ActionRequest struct {
	SessionID string     `json:"session_id"`
	Action    ActionKind `json:"action"`
	UserID    string     `json:"user_id"`
}

type ActionResponse struct {
	Result string     `json:"result"`
	Action ActionKind `json:"action,omitempty"`
}

type HistoryEntry struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

// Session is the conversational context held for the lifetime of one
// coaching run.
type Session struct {
	ID            string
	UserID        string
	CompletePitch string
	HasPitch      bool
}
