package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sngm3741/podcast-question-gateway/internal/fanout"
	"github.com/sngm3741/podcast-question-gateway/internal/submission/domain"
)

// Sink delivers a submission to one third party.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, record domain.Record) (domain.Outcome, error)
}

// OutcomeObserver records per-sink results, e.g. as metrics.
type OutcomeObserver interface {
	ObserveSink(sink string, success bool)
}

// SubmissionService fans a submission out to every sink.
type SubmissionService interface {
	Submit(ctx context.Context, record domain.Record) domain.FanOutResult
}

// Config defines dependencies required by the submission service.
type Config struct {
	Logger    *zap.Logger
	Sheets    Sink
	Mailchimp Sink
	Observer  OutcomeObserver
}

type submissionService struct {
	logger    *zap.Logger
	sheets    Sink
	mailchimp Sink
	observer  OutcomeObserver
}

// NewSubmissionService wires the sinks behind SubmissionService.
func NewSubmissionService(cfg Config) SubmissionService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &submissionService{
		logger:    logger,
		sheets:    cfg.Sheets,
		mailchimp: cfg.Mailchimp,
		observer:  cfg.Observer,
	}
}

// Submit calls both sinks concurrently and waits for both. Neither sink's
// failure affects the other; every error ends up inside its own Outcome.
func (s *submissionService) Submit(ctx context.Context, record domain.Record) domain.FanOutResult {
	logger := s.logger.With(zap.String("submission", uuid.NewString()))

	results := fanout.Run(ctx,
		s.call("sheets", s.sheets, record),
		s.call("mailchimp", s.mailchimp, record),
	)

	sheets := s.settle(logger, results, "sheets")
	mailchimp := s.settle(logger, results, "mailchimp")

	result := domain.FanOutResult{
		Success:   domain.Succeeded(sheets, mailchimp),
		Sheets:    sheets,
		Mailchimp: mailchimp,
	}
	logger.Info("submission delivered",
		zap.Bool("success", result.Success),
		zap.Bool("sheets", sheets.Success),
		zap.Bool("mailchimp", mailchimp.Success),
	)
	return result
}

func (s *submissionService) call(slot string, sink Sink, record domain.Record) fanout.Call[domain.Outcome] {
	return fanout.Call[domain.Outcome]{
		Name: slot,
		Do: func(ctx context.Context) (domain.Outcome, error) {
			if sink == nil {
				return domain.Outcome{}, fmt.Errorf("%s %w", slot, domain.ErrNotConfigured)
			}
			return sink.Deliver(ctx, record)
		},
	}
}

func (s *submissionService) settle(logger *zap.Logger, results []fanout.Result[domain.Outcome], slot string) domain.Outcome {
	res, _ := fanout.Find(results, slot)

	outcome := res.Value
	if res.Err != nil {
		outcome = domain.Failed(res.Err)
		if errors.Is(res.Err, domain.ErrNotConfigured) {
			logger.Debug("sink skipped", zap.String("sink", slot), zap.Error(res.Err))
		} else {
			logger.Warn("sink delivery failed", zap.String("sink", slot), zap.Error(res.Err))
		}
	}

	if s.observer != nil {
		s.observer.ObserveSink(slot, outcome.Success)
	}
	return outcome
}
