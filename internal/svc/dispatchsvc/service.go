package dispatchsvc

import (
	"context"

	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"

	// StatusSkipped only happens when dedupe policy is enabled in a batch run.
	StatusSkipped Status = "skipped"
)

// Outcome is the result of one attempt to one (category, recipient) pair. It is never mutated after created.
type Outcome struct {
	Seq            int    `json:"seq"`
	CategoryCode   string `json:"category_code"`
	RecipientEmail string `json:"recipient_email"`
	Status         Status `json:"status"`

	// Reason is the transport error text as is on failure, or which pair was sent first on skipped.
	Reason string `json:"reason,omitempty"`
}

func Success(categoryCode, email string) Outcome {
	return Outcome{CategoryCode: categoryCode, RecipientEmail: email, Status: StatusSuccess}
}

func Failure(categoryCode, email, reason string) Outcome {
	return Outcome{CategoryCode: categoryCode, RecipientEmail: email, Status: StatusFailure, Reason: reason}
}

func Skipped(categoryCode, email, reason string) Outcome {
	return Outcome{CategoryCode: categoryCode, RecipientEmail: email, Status: StatusSkipped, Reason: reason}
}

// Dispatcher does exactly one transmission attempt per call, and never returns error:
// every failure is the Outcome.
type Dispatcher interface {
	Send(ctx context.Context, creds sessionsvc.Credentials, msg composesvc.Message, category catalogsvc.Category, recipient catalogsvc.Recipient) Outcome
}
