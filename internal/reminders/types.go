// Package reminders raises a notice for every active scheduled bill on the
// day of the month it falls due.
package reminders

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/saved"
)

// Status is where a reminder job is in its lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusSent     Status = "sent"
	StatusRetrying Status = "retrying"
	StatusFailed   Status = "failed"
)

// ErrNotFound is returned for an unknown job ID.
var ErrNotFound = errors.New("reminder not found")

// ErrClosed is returned when publishing to a stopped queue.
var ErrClosed = errors.New("reminder queue is closed")

// Job is one reminder for one schedule on one due date.
type Job struct {
	ID                    string          `json:"id"`
	ScheduleID            string          `json:"schedule_id"`
	OwnerID               string          `json:"owner_id"`
	ProviderName          string          `json:"provider_name"`
	Category              domain.Category `json:"category"`
	AccountOrMobileNumber string          `json:"account_or_mobile_number"`
	Amount                decimal.Decimal `json:"amount"`
	DueDate               civil.Date      `json:"due_date"`

	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// JobID is the ID of the reminder for schedule on due. A schedule gets at
// most one reminder per day.
func JobID(scheduleID string, due civil.Date) string {
	return scheduleID + "@" + due.String()
}

// NewJob creates the pending reminder for b on due.
func NewJob(b saved.ScheduledBill, due civil.Date) *Job {
	return &Job{
		ID:                    JobID(b.ID, due),
		ScheduleID:            b.ID,
		OwnerID:               b.OwnerID,
		ProviderName:          b.ProviderName,
		Category:              b.Category,
		AccountOrMobileNumber: b.AccountOrMobileNumber,
		Amount:                b.Amount,
		DueDate:               due,
		Status:                StatusPending,
	}
}

// Notifier delivers a reminder to its owner. An error makes the queue
// retry the job.
type Notifier interface {
	Notify(ctx context.Context, job Job) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, job Job) error

func (f NotifierFunc) Notify(ctx context.Context, job Job) error { return f(ctx, job) }

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	OwnerID string
	Status  Status
	Limit   int
	Offset  int
}
