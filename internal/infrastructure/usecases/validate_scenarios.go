package usecases

import (
	"context"
	"errors"
	"net"
	"net/url"
	"syscall"
	"time"

	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/outbound/probe"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
)

// Probe pacing per target host.
const (
	probeRate  = 5.0
	probeBurst = 10
)

// ValidateScenariosUseCase runs the preflight reachability check over a
// project's scenarios. Every scenario gets a verdict, including ones outside
// the active filter, so broken targets stay visible even when not selected
// for the run.
type ValidateScenariosUseCase struct {
	prober      ports.Prober
	rateLimiter ports.RateLimiter
	clock       ports.Clock
	logger      ports.Logger
}

// NewValidateScenariosUseCase creates a new use case.
func NewValidateScenariosUseCase(prober ports.Prober, rateLimiter ports.RateLimiter, clock ports.Clock, logger ports.Logger) *ValidateScenariosUseCase {
	return &ValidateScenariosUseCase{
		prober:      prober,
		rateLimiter: rateLimiter,
		clock:       clock,
		logger:      logger,
	}
}

// Execute probes each scenario's target URL (and referenceUrl when distinct)
// and classifies failures. Verdicts come back in scenario order, one per
// scenario.
func (uc *ValidateScenariosUseCase) Execute(ctx context.Context, project *scenario.Project, filter *scenario.Filter) []scenario.Verdict {
	verdicts := make([]scenario.Verdict, 0, len(project.Scenarios))
	probed := make(map[string]error, len(project.Scenarios))

	for i := range project.Scenarios {
		sc := &project.Scenarios[i]
		verdict := scenario.Verdict{
			Label:         sc.Label,
			Valid:         true,
			MatchedFilter: filter.Matches(sc),
		}

		targets, reason, msg := uc.targets(sc)
		if reason != "" {
			verdict.Valid = false
			verdict.Reason = reason
			verdict.Message = msg
			verdicts = append(verdicts, verdict)
			continue
		}

		for _, target := range targets {
			err, seen := probed[target]
			if !seen {
				err = uc.probe(ctx, target)
				probed[target] = err
			}
			if err != nil {
				verdict.Valid = false
				verdict.Reason, verdict.Message = classifyProbeError(err)
				uc.logger.Warn("preflight check failed",
					"project", project.ID, "scenario", sc.Label,
					"url", target, "reason", verdict.Reason)
				break
			}
		}
		verdicts = append(verdicts, verdict)
	}

	return verdicts
}

// targets returns the URLs to probe for a scenario, or a validation reason
// when the scenario URL itself is malformed.
func (uc *ValidateScenariosUseCase) targets(sc *scenario.Scenario) ([]string, scenario.Reason, string) {
	u, err := url.Parse(sc.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, scenario.ReasonInvalidURL, "scenario url is not an absolute http(s) url: " + sc.URL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, scenario.ReasonInvalidURL, "unsupported url scheme: " + u.Scheme
	}

	targets := []string{sc.URL}
	if sc.ReferenceURL != "" && sc.ReferenceURL != sc.URL {
		ru, err := url.Parse(sc.ReferenceURL)
		if err != nil || ru.Scheme == "" || ru.Host == "" {
			return nil, scenario.ReasonInvalidURL, "reference url is not an absolute http(s) url: " + sc.ReferenceURL
		}
		targets = append(targets, sc.ReferenceURL)
	}
	return targets, "", ""
}

// probe paces requests per host before handing off to the prober.
func (uc *ValidateScenariosUseCase) probe(ctx context.Context, target string) error {
	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Host
	}
	for !uc.rateLimiter.Allow(ctx, host, probeRate, probeBurst) {
		if err := uc.clock.SleepContext(ctx, 100*time.Millisecond); err != nil {
			return err
		}
	}
	return uc.prober.Probe(ctx, target)
}

// classifyProbeError maps a probe failure onto the report error taxonomy.
func classifyProbeError(err error) (scenario.Reason, string) {
	var statusErr *probe.StatusError
	if errors.As(err, &statusErr) {
		return scenario.ReasonHTTPStatus, statusErr.Error()
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return scenario.ReasonTimeout, err.Error()
		}
		return scenario.ReasonDNSFailure, err.Error()
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return scenario.ReasonConnectionRefused, err.Error()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return scenario.ReasonTimeout, err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return scenario.ReasonTimeout, err.Error()
	}

	// Anything else reaching us is a broken connection of some flavor.
	return scenario.ReasonConnectionRefused, err.Error()
}
