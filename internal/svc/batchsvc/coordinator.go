package batchsvc

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/dispatchsvc"
	"github.com/yusufsyaifudin/ngundang/pkg/tracer"
	"github.com/yusufsyaifudin/ngundang/pkg/uid"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type CoordinatorConfig struct {
	Catalog    *catalogsvc.Catalog    `validate:"required"`
	Composer   *composesvc.Composer   `validate:"required"`
	Dispatcher dispatchsvc.Dispatcher `validate:"required"`
	RunID      uid.UID                `validate:"required"`

	// MaxParallel is number of concurrent attempts in one run. 0 and 1 means strictly sequential.
	MaxParallel int `validate:"min=0"`

	// Dedupe skips an email already attempted earlier in the same run, under any category.
	Dedupe bool
}

type Coordinator struct {
	Config CoordinatorConfig

	jobs      chan dispatchJob
	closeOnce sync.Once

	mu     sync.RWMutex
	closed bool
	active sync.WaitGroup // Run and SendOne calls in flight
}

var _ Service = (*Coordinator)(nil)

func New(cfg CoordinatorConfig) (*Coordinator, error) {
	err := validator.Validate(cfg)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		Config: cfg,
	}

	if cfg.MaxParallel > 1 {
		c.jobs = make(chan dispatchJob, cfg.MaxParallel)
		for i := 1; i <= cfg.MaxParallel; i++ {
			go dispatchWorker(i, cfg.Dispatcher, c.jobs)
		}
	}

	return c, nil
}

// Close rejects new calls with ErrCoordinatorClosed, waits for the running ones to finish, then stops the workers.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.active.Wait()

	c.closeOnce.Do(func() {
		if c.jobs != nil {
			close(c.jobs)
		}
	})

	return nil
}

// begin registers one call, done must be called when it returns.
func (c *Coordinator) begin() (done func(), err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrCoordinatorClosed
	}

	c.active.Add(1)
	return c.active.Done, nil
}

// pair is one (category, recipient) to attempt, Skip is set when dedupe decided not to send.
type pair struct {
	Seq       int
	Category  catalogsvc.Category
	Recipient catalogsvc.Recipient
	Skip      string
}

// Run resolves every selected name first, so unknown category or template fails before anything is sent.
// The run is not cancelled when ctx is, once started every pair is attempted.
func (c *Coordinator) Run(ctx context.Context, session CredentialSource, input InputRun) (report *Report, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "batchsvc.Run")
	defer span.End()

	done, err := c.begin()
	if err != nil {
		return
	}
	defer done()

	creds, err := session.Current()
	if err != nil {
		return
	}

	categories := make([]catalogsvc.Category, 0, len(input.Categories))
	selected := make(map[string]struct{}, len(input.Categories))
	for _, name := range input.Categories {
		if _, dup := selected[name]; dup {
			err = fmt.Errorf("%w: '%s'", ErrDuplicateCategory, name)
			return
		}

		selected[name] = struct{}{}

		category, ok := c.Config.Catalog.Lookup(name)
		if !ok {
			err = fmt.Errorf("%w: '%s'", ErrUnknownCategory, name)
			return
		}

		categories = append(categories, category)
	}

	if err = c.Config.Composer.Check(input.Template); err != nil {
		return
	}

	id, err := c.Config.RunID.NextID()
	if err != nil {
		err = fmt.Errorf("generate run id: %w", err)
		return
	}

	report = &Report{
		RunID:     strconv.FormatUint(id, 10),
		Outcomes:  make([]dispatchsvc.Outcome, 0),
		StartedAt: time.Now(),
	}

	span.SetAttributes(attribute.String("run_id", report.RunID))
	ctx = context.WithoutCancel(ctx)

	pairs := c.expand(categories)
	report.Outcomes = make([]dispatchsvc.Outcome, len(pairs))

	wg := &sync.WaitGroup{}
	for _, p := range pairs {
		if p.Skip != "" {
			out := dispatchsvc.Skipped(p.Category.Code, p.Recipient.Email, p.Skip)
			out.Seq = p.Seq
			report.Outcomes[p.Seq-1] = out
			continue
		}

		msg, _err := c.Config.Composer.Compose(input.Template, p.Category, p.Recipient, input.Fields)
		if _err != nil {
			out := dispatchsvc.Failure(p.Category.Code, p.Recipient.Email, _err.Error())
			out.Seq = p.Seq
			report.Outcomes[p.Seq-1] = out
			continue
		}

		job := dispatchJob{
			Ctx:       ctx,
			Wg:        wg,
			Seq:       p.Seq,
			Creds:     creds,
			Message:   msg,
			Category:  p.Category,
			Recipient: p.Recipient,
			Outcomes:  report.Outcomes,
		}

		wg.Add(1)
		if c.jobs == nil {
			runJob(0, c.Config.Dispatcher, job)
			continue
		}

		c.jobs <- job
	}

	wg.Wait()

	for _, out := range report.Outcomes {
		switch out.Status {
		case dispatchsvc.StatusSuccess:
			report.Success++
		case dispatchsvc.StatusSkipped:
			report.Skipped++
		default:
			report.Failure++
		}
	}

	report.FinishedAt = time.Now()

	ylog.Info(ctx, "batch run finished",
		ylog.KV("run_id", report.RunID),
		ylog.KV("categories", input.Categories),
		ylog.KV("success", report.Success),
		ylog.KV("failure", report.Failure),
		ylog.KV("skipped", report.Skipped),
		ylog.KV("elapsed", report.FinishedAt.Sub(report.StartedAt).String()),
	)

	return
}

// expand lists pairs in selection order, then recipient order in the catalog.
func (c *Coordinator) expand(categories []catalogsvc.Category) []pair {
	pairs := make([]pair, 0)
	first := map[string]pair{}

	for _, category := range categories {
		for _, recipient := range category.Recipients {
			p := pair{
				Seq:       len(pairs) + 1,
				Category:  category,
				Recipient: recipient,
			}

			if c.Config.Dedupe {
				if prev, seen := first[recipient.Email]; seen {
					p.Skip = fmt.Sprintf("duplicate of seq %d in category %s", prev.Seq, prev.Category.Code)
				} else {
					first[recipient.Email] = p
				}
			}

			pairs = append(pairs, p)
		}
	}

	return pairs
}

// SendOne is the same compose then dispatch path as Run, for one recipient.
func (c *Coordinator) SendOne(ctx context.Context, session CredentialSource, input InputSendOne) (out dispatchsvc.Outcome, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "batchsvc.SendOne")
	defer span.End()

	done, err := c.begin()
	if err != nil {
		return
	}
	defer done()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	creds, err := session.Current()
	if err != nil {
		return
	}

	category, ok := c.Config.Catalog.Lookup(input.Category)
	if !ok {
		err = fmt.Errorf("%w: '%s'", ErrUnknownCategory, input.Category)
		return
	}

	recipient, ok := category.FindRecipient(input.RecipientEmail)
	if !ok {
		err = fmt.Errorf("%w: '%s' in category '%s'", ErrUnknownRecipient, input.RecipientEmail, category.Name)
		return
	}

	msg, err := c.Config.Composer.Compose(input.Template, category, recipient, input.Fields)
	if err != nil {
		return
	}

	out = c.Config.Dispatcher.Send(context.WithoutCancel(ctx), creds, msg, category, recipient)
	out.Seq = 1
	return
}
