package batchsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/dispatchsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
	"github.com/yusufsyaifudin/ngundang/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type dispatchJob struct {
	Ctx context.Context
	Wg  *sync.WaitGroup

	Seq       int
	Creds     sessionsvc.Credentials
	Message   composesvc.Message
	Category  catalogsvc.Category
	Recipient catalogsvc.Recipient

	// Outcomes is shared by all jobs of one run, each job only writes its own index Seq-1.
	Outcomes []dispatchsvc.Outcome
}

func dispatchWorker(workerID int, dispatcher dispatchsvc.Dispatcher, jobs <-chan dispatchJob) {
	for job := range jobs {
		runJob(workerID, dispatcher, job)
	}
}

// runJob always writes one outcome and calls Done, a panicking dispatcher included.
func runJob(workerID int, dispatcher dispatchsvc.Dispatcher, job dispatchJob) {
	defer job.Wg.Done()

	if job.Ctx == nil {
		out := dispatchsvc.Failure(job.Category.Code, job.Recipient.Email, "no context passed to dispatch job")
		out.Seq = job.Seq
		job.Outcomes[job.Seq-1] = out
		return
	}

	var ctx = job.Ctx
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "batchsvc.dispatchWorker")
	span.SetAttributes(
		attribute.Int("worker_id", workerID),
		attribute.Int("seq", job.Seq),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			out := dispatchsvc.Failure(job.Category.Code, job.Recipient.Email, fmt.Sprintf("panic during send: %v", r))
			out.Seq = job.Seq
			job.Outcomes[job.Seq-1] = out
		}
	}()

	out := dispatcher.Send(ctx, job.Creds, job.Message, job.Category, job.Recipient)
	out.Seq = job.Seq
	job.Outcomes[job.Seq-1] = out
}
