package batchsvc

import (
	"context"
	"errors"
	"time"

	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/dispatchsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
)

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownRecipient = errors.New("unknown recipient")

	// ErrDuplicateCategory means one category is selected more than once in a run.
	ErrDuplicateCategory = errors.New("category selected more than once")

	ErrCoordinatorClosed = errors.New("batch coordinator is closed")
)

// Service expands the selection into (category, recipient) pairs and sends to each of them.
// Errors are only returned before any attempt is made, after that every result is an Outcome.
type Service interface {
	Run(ctx context.Context, session CredentialSource, input InputRun) (report *Report, err error)
	SendOne(ctx context.Context, session CredentialSource, input InputSendOne) (out dispatchsvc.Outcome, err error)
}

// CredentialSource is satisfied by *sessionsvc.Session.
type CredentialSource interface {
	Current() (sessionsvc.Credentials, error)
}

// InputRun never be as request response payload!
type InputRun struct {
	// Categories are names in the order the operator selected them.
	Categories []string
	Template   string
	Fields     composesvc.Fields
}

type InputSendOne struct {
	Category       string `validate:"required"`
	RecipientEmail string `validate:"required"`
	Template       string
	Fields         composesvc.Fields
}

// Report has one outcome per attempted pair, ordered by Seq which is the iteration order.
type Report struct {
	RunID      string                `json:"run_id"`
	Outcomes   []dispatchsvc.Outcome `json:"outcomes"`
	Success    int                   `json:"success"`
	Failure    int                   `json:"failure"`
	Skipped    int                   `json:"skipped"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
}
