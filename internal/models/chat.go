package models

type Sender string

const (
	SenderUser  Sender = "user"
	SenderCoach Sender = "coach"
)

// Label is the display name rendered above a message.
func (s Sender) Label() string {
	if s == SenderUser {
		return "You"
	}
	return "Coach"
}

type ChatMessage struct {
	Sender Sender
	Text   string
}
