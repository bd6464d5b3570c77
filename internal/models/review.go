package models

import (
	"time"

	"github.com/google/uuid"
)

type ReviewOutcome string

const (
	OutcomeSuccess  ReviewOutcome = "success"
	OutcomeRejected ReviewOutcome = "rejected"
	OutcomeFailed   ReviewOutcome = "failed"
)

// ReviewRecord is one archived analyze submission.
type ReviewRecord struct {
	ID             uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FileName       string        `gorm:"type:text" json:"file_name"`
	JobDescription string        `gorm:"type:text" json:"job_description"`
	Outcome        ReviewOutcome `gorm:"type:text;not null" json:"outcome"`
	Report         *string       `gorm:"type:text" json:"report,omitempty"`
	ErrorMessage   *string       `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time     `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ReviewRecord) TableName() string {
	return "review_records"
}
