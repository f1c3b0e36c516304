package runner

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic key derivation
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/samvad-hq/restprobe/internal/checks"
	"github.com/samvad-hq/restprobe/internal/domain"
	"github.com/samvad-hq/restprobe/internal/logger"
	"github.com/samvad-hq/restprobe/pkg/publishers"
	"github.com/samvad-hq/restprobe/pkg/rest"
)

// Service executes checks sequentially through one rest.Client and reports
// failures downstream.
type Service struct {
	client    *rest.Client
	publisher EventPublisher
	store     AlertStore
	log       logger.Logger
	delay     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the sink for failure events.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithStore sets the alert store.
func WithStore(st AlertStore) Option {
	return func(s *Service) { s.store = st }
}

// WithDelay pauses between consecutive checks.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.delay = d
		}
	}
}

// NewService wires a runner around client.
func NewService(client *rest.Client, log logger.Logger, opts ...Option) *Service {
	if client == nil {
		client = rest.New(nil)
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	s := &Service{client: client, log: log}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Client exposes the underlying rest.Client and its failure records.
func (s *Service) Client() *rest.Client { return s.client }

// Run executes every check once and returns the report. The returned error
// only covers alerting problems; failing checks are reported in the RunReport.
func (s *Service) Run(ctx context.Context, list []checks.Check) (domain.RunReport, error) {
	if s == nil || s.client == nil {
		return domain.RunReport{}, fmt.Errorf("runner service is not initialized")
	}
	if len(list) == 0 {
		return domain.RunReport{}, fmt.Errorf("no checks configured")
	}

	start := time.Now()
	before := s.client.RequestCounter()
	report := domain.RunReport{StartedAt: start.UTC()}

	var errs []error
	for i, c := range list {
		select {
		case <-ctx.Done():
			report.Elapsed = time.Since(start)
			report.Requests = s.client.RequestCounter() - before
			return report, ctx.Err()
		default:
		}

		res := s.runCheck(ctx, c)
		report.Results = append(report.Results, res)

		if !res.OK {
			if err := s.alert(ctx, res); err != nil {
				errs = append(errs, err)
			}
		}

		if s.delay > 0 && i < len(list)-1 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				report.Elapsed = time.Since(start)
				report.Requests = s.client.RequestCounter() - before
				return report, ctx.Err()
			case <-timer.C:
			}
		}
	}

	report.Elapsed = time.Since(start)
	report.Requests = s.client.RequestCounter() - before
	s.log.InfoObj("checks completed", "run_summary", map[string]any{
		"checks":     len(report.Results),
		"failed":     len(report.Failed()),
		"requests":   report.Requests,
		"elapsed_ms": report.Elapsed.Milliseconds(),
	})
	return report, errors.Join(errs...)
}

func (s *Service) runCheck(ctx context.Context, c checks.Check) domain.CheckResult {
	expect := c.Expectation
	if expect == nil {
		expect = rest.Code(200)
	}

	start := time.Now()
	body := s.client.Do(ctx, c.Method, c.Headers, c.URL, expect, c.Data.Fields(), rest.VerboseIf(c.Verbose))
	status := s.client.LastStatus()

	res := domain.CheckResult{
		CheckID:     c.ID,
		Name:        c.Name,
		Method:      s.client.LastMethod(),
		URL:         c.URL,
		BaseURL:     s.client.LastBaseURL(),
		Expected:    expect.String(),
		StatusCode:  status,
		OK:          true,
		BodySnippet: snippet(body),
		Duration:    time.Since(start),
	}

	switch {
	case s.client.LastErr() != nil:
		res.OK = false
		res.Reason = "transport: " + s.client.LastErr().Error()
	case !expect.Matches(status):
		res.OK = false
		res.Reason = fmt.Sprintf("expected %s, received %d", expect, status)
	case c.Contains != "" && !containsText(body, c.Contains):
		res.OK = false
		res.Reason = fmt.Sprintf("body does not contain %q", c.Contains)
	}
	if f, ok := s.client.LastFailure(); ok {
		res.Payload = f.Payload
	}
	if !res.OK {
		s.log.WarnObj("check failed", "check_failure", map[string]any{
			"check_id": res.CheckID,
			"method":   res.Method,
			"base_url": res.BaseURL,
			"status":   res.StatusCode,
			"reason":   res.Reason,
		})
	}
	return res
}

// alert records the failure and publishes it unless the same failure was
// already alerted within the store's TTL.
func (s *Service) alert(ctx context.Context, res domain.CheckResult) error {
	if s.store != nil {
		if err := s.store.RecordFailure(domain.NewFailureRecord(res, time.Now())); err != nil {
			s.log.ErrorObj("failure history write failed", "error", err)
		}
	}
	if s.publisher == nil {
		return nil
	}

	key := alertKey(res)
	if s.store != nil {
		seen, err := s.store.SeenFailure(key)
		if err != nil {
			return fmt.Errorf("alert lookup for %s: %w", res.CheckID, err)
		}
		if seen {
			s.log.DebugObj("alert suppressed", "check_id", res.CheckID)
			return nil
		}
	}

	delivered, err := s.publisher.Publish(ctx, publishers.NewEvent(res))
	if err != nil {
		s.log.ErrorObj("failure event publish failed", "publish_error", map[string]any{
			"check_id":  res.CheckID,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
	if delivered == 0 {
		if err == nil {
			return nil
		}
		return fmt.Errorf("publish failure for %s: %w", res.CheckID, err)
	}

	if s.store != nil {
		if markErr := s.store.MarkFailure(key); markErr != nil {
			return fmt.Errorf("mark alert for %s: %w", res.CheckID, markErr)
		}
	}
	return nil
}

// alertKey identifies a failure by check, endpoint and observed status so a
// change of status raises a fresh alert.
func alertKey(res domain.CheckResult) string {
	sum := sha1.Sum([]byte(res.CheckID + "|" + res.Method + "|" + res.BaseURL + "|" + strconv.Itoa(res.StatusCode)))
	return hex.EncodeToString(sum[:])
}
