package newsletter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ignite/jellyfin-newsletter/internal/config"
	"github.com/ignite/jellyfin-newsletter/internal/jellyfin"
	"github.com/ignite/jellyfin-newsletter/internal/metrics"
)

// Stages of the per-recipient pipeline, recorded on failures
const (
	StageFetch  = "fetch"
	StageRender = "render"
	StageWrite  = "write"
	StageSend   = "send"
)

const defaultWorkers = 4

// UserLister fetches the server's account list
type UserLister interface {
	ListUsers(ctx context.Context) ([]jellyfin.User, error)
}

// Renderer turns a render context into the final HTML document
type Renderer interface {
	Render(ctx Context) (string, error)
}

// Dispatcher delivers one rendered newsletter by mail
type Dispatcher interface {
	Send(ctx context.Context, to, subject, html string) error
}

// RecipientResult is the outcome of one recipient's pipeline unit
type RecipientResult struct {
	Recipient  Recipient
	Entries    int
	OutputPath string
	// Stage and Err are set when the unit failed. A failed send still
	// leaves OutputPath populated, the file is written first.
	Stage string
	Err   error
}

// RunReport collects per-recipient results for one run
type RunReport struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []RecipientResult
}

// Failed returns the results of recipients whose unit failed
func (r *RunReport) Failed() []RecipientResult {
	var failed []RecipientResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Succeeded returns the number of recipients processed without error
func (r *RunReport) Succeeded() int {
	return len(r.Results) - len(r.Failed())
}

// Service orchestrates a newsletter run across all configured
// recipients.
type Service struct {
	users      UserLister
	builder    *Builder
	renderer   Renderer
	dispatcher Dispatcher // nil disables mail delivery
	recipients []config.Recipient
	subject    string
	outputDir  string
	workers    int
	logger     zerolog.Logger
}

// NewService creates the run orchestrator. dispatcher may be nil, in
// which case newsletters are only written to disk.
func NewService(users UserLister, builder *Builder, renderer Renderer, dispatcher Dispatcher, cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		users:      users,
		builder:    builder,
		renderer:   renderer,
		dispatcher: dispatcher,
		recipients: cfg.Recipients,
		subject:    cfg.Mail.Subject,
		outputDir:  cfg.OutputDir,
		workers:    defaultWorkers,
		logger:     logger,
	}
}

// Run executes one full newsletter run: resolve recipients once, then
// process each recipient as an independent unit of work on a bounded
// worker pool. A unit failure is recorded in the report and never
// aborts the other units; Run itself fails only when no recipient can
// be resolved at all.
func (s *Service) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:   uuid.New().String(),
		Started: time.Now(),
	}
	log := s.logger.With().Str("run_id", report.RunID).Logger()

	recipients, err := s.resolveRecipients(ctx, log)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	log.Info().Int("recipients", len(recipients)).Msg("starting newsletter run")

	report.Results = make([]RecipientResult, len(recipients))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := s.workers
	if workers > len(recipients) {
		workers = len(recipients)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				report.Results[idx] = s.processRecipient(ctx, log, recipients[idx])
			}
		}()
	}

	for idx := range recipients {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	report.Finished = time.Now()
	s.logSummary(log, report)

	return report, nil
}

// Preview builds and renders one configured recipient's newsletter
// without writing or sending anything.
func (s *Service) Preview(ctx context.Context, name string) (string, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("listing server users: %w", err)
	}

	var configured []config.Recipient
	for _, r := range s.recipients {
		if r.Name == name {
			configured = append(configured, r)
			break
		}
	}
	if len(configured) == 0 {
		return "", fmt.Errorf("recipient %q is not configured", name)
	}

	res := Resolve(configured, users)
	if len(res.Recipients) == 0 {
		return "", fmt.Errorf("recipient %q has no media server account", name)
	}

	renderCtx, err := s.builder.Build(ctx, res.Recipients[0])
	if err != nil {
		return "", err
	}
	return s.renderer.Render(renderCtx)
}

// resolveRecipients fetches the server user list and joins it against
// the configured recipients. Unmatched or ambiguous names are logged;
// the run fails only when nothing resolves.
func (s *Service) resolveRecipients(ctx context.Context, log zerolog.Logger) ([]Recipient, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		if jellyfin.IsAuthError(err) {
			return nil, fmt.Errorf("media server rejected the token: %w", err)
		}
		return nil, fmt.Errorf("listing server users: %w", err)
	}

	res := Resolve(s.recipients, users)
	for _, name := range res.Unmatched {
		log.Warn().Str("recipient", name).Msg("no media server account with this name, skipping recipient")
	}
	for _, name := range res.Ambiguous {
		log.Warn().Str("recipient", name).Msg("multiple media server accounts share this name, using the first match")
	}

	if len(res.Recipients) == 0 {
		return nil, fmt.Errorf("none of the %d configured recipients matched a server account", len(s.recipients))
	}
	return res.Recipients, nil
}

// processRecipient runs one recipient's unit: build, render, write,
// optionally send.
func (s *Service) processRecipient(ctx context.Context, log zerolog.Logger, recipient Recipient) RecipientResult {
	result := RecipientResult{Recipient: recipient}

	renderCtx, err := s.builder.Build(ctx, recipient)
	if err != nil {
		metrics.RecipientFailures.WithLabelValues(StageFetch).Inc()
		log.Error().Err(err).Str("recipient", recipient.Name).Msg("fetching items failed, skipping recipient")
		result.Stage, result.Err = StageFetch, err
		return result
	}
	result.Entries = len(renderCtx.Entries)

	html, err := s.renderer.Render(renderCtx)
	if err != nil {
		metrics.RecipientFailures.WithLabelValues(StageRender).Inc()
		log.Error().Err(err).Str("recipient", recipient.Name).Msg("rendering newsletter failed")
		result.Stage, result.Err = StageRender, err
		return result
	}

	// The HTML file is written regardless of whether mail is sent.
	path := filepath.Join(s.outputDir, recipient.Name+".out.html")
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		metrics.RecipientFailures.WithLabelValues(StageWrite).Inc()
		log.Error().Err(err).Str("recipient", recipient.Name).Msg("writing newsletter file failed")
		result.Stage, result.Err = StageWrite, err
		return result
	}
	result.OutputPath = path
	metrics.NewslettersBuilt.Inc()

	log.Info().
		Str("recipient", recipient.Name).
		Int("entries", result.Entries).
		Str("path", path).
		Msg("newsletter written")

	if s.dispatcher != nil {
		if err := s.dispatcher.Send(ctx, recipient.Mail, s.subject, html); err != nil {
			metrics.RecipientFailures.WithLabelValues(StageSend).Inc()
			log.Error().Err(err).Str("recipient", recipient.Name).Msg("sending newsletter failed")
			result.Stage, result.Err = StageSend, err
			return result
		}
		metrics.MailsSent.Inc()
		log.Info().Str("recipient", recipient.Name).Str("to", recipient.Mail).Msg("newsletter sent")
	}

	return result
}

func (s *Service) logSummary(log zerolog.Logger, report *RunReport) {
	failed := report.Failed()

	outcome := "success"
	switch {
	case len(failed) == len(report.Results):
		outcome = "failed"
	case len(failed) > 0:
		outcome = "partial"
	}
	metrics.RunsTotal.WithLabelValues(outcome).Inc()

	log.Info().
		Str("outcome", outcome).
		Int("recipients", len(report.Results)).
		Int("succeeded", report.Succeeded()).
		Int("failed", len(failed)).
		Dur("duration", report.Finished.Sub(report.Started)).
		Msg("newsletter run finished")
}
