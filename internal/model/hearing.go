package model

import (
	"time"

	"github.com/google/uuid"
)

// Hearing is a scheduled court appearance of a case. The reminder_* columns
// carry the timestamp-queue state and the audit of the last attempt.
type Hearing struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	CaseID           *uuid.UUID `json:"case_id" db:"case_id"`
	HearingDate      Date       `json:"hearing_date" db:"hearing_date"`
	NotificationTime string     `json:"notification_time" db:"notification_time"`
	Notes            string     `json:"notes" db:"notes"`
	NextStage        string     `json:"next_stage" db:"next_stage"`
	Documents        Documents  `json:"documents" db:"documents"`

	ReminderScheduledAt *time.Time `json:"reminder_scheduled_ts" db:"reminder_scheduled_ts"`
	ReminderSent        bool       `json:"reminder_sent" db:"reminder_sent"`
	ReminderSentAt      *time.Time `json:"reminder_sent_at" db:"reminder_sent_at"`
	ReminderSID         *string    `json:"reminder_sid,omitempty" db:"reminder_sid"`
	ReminderStatus      *string    `json:"reminder_status,omitempty" db:"reminder_status"`
	ReminderError       *string    `json:"reminder_error,omitempty" db:"reminder_error"`
	ReminderResult      *string    `json:"reminder_result,omitempty" db:"reminder_result"`
	Timestamps
}

// ClearReminder resets the queue state so the hearing is picked up again.
func (h *Hearing) ClearReminder() {
	h.ReminderSent = false
	h.ReminderSentAt = nil
	h.ReminderSID = nil
	h.ReminderStatus = nil
	h.ReminderError = nil
	h.ReminderResult = nil
}

type HearingInput struct {
	HearingDate      Date   `json:"hearing_date" binding:"required"`
	NotificationTime string `json:"notification_time" binding:"omitempty,hhmm"`
	Notes            string `json:"notes" binding:"omitempty,max=5000"`
	NextStage        string `json:"next_stage" binding:"omitempty,max=200"`
}

// ReminderOutcome is written back onto a hearing after a dispatch attempt.
// Exactly one of SID/Status, Error or Result is normally set.
type ReminderOutcome struct {
	SentAt time.Time
	SID    string
	Status string
	Error  string
	Result string
}
