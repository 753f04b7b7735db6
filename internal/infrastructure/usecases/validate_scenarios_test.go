package usecases_test

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/outbound/probe"
	"github.com/sophialabs/visreg/internal/testutil"
	"github.com/sophialabs/visreg/internal/infrastructure/usecases"
)

func newValidator(prober *testutil.StubProber) *usecases.ValidateScenariosUseCase {
	return usecases.NewValidateScenariosUseCase(
		prober,
		&testutil.StubRateLimiter{AllowAll: true},
		&testutil.FixedClock{T: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)},
		&testutil.NoopLogger{},
	)
}

func TestValidateScenariosAllReachable(t *testing.T) {
	prober := &testutil.StubProber{}
	uc := newValidator(prober)

	verdicts := uc.Execute(context.Background(), testutil.ProjectFixture(), nil)

	if len(verdicts) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(verdicts))
	}
	for _, v := range verdicts {
		if !v.Valid {
			t.Errorf("scenario %q unexpectedly invalid: %s", v.Label, v.Reason)
		}
		if !v.MatchedFilter {
			t.Errorf("scenario %q should match the empty filter", v.Label)
		}
	}
}

func TestValidateScenariosClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want scenario.Reason
	}{
		{
			name: "connection refused",
			err:  &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			want: scenario.ReasonConnectionRefused,
		},
		{
			name: "dns failure",
			err:  &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true},
			want: scenario.ReasonDNSFailure,
		},
		{
			name: "timeout",
			err:  &net.DNSError{Err: "i/o timeout", Name: "slow.example", IsTimeout: true},
			want: scenario.ReasonTimeout,
		},
		{
			name: "http error status",
			err:  &probe.StatusError{URL: "http://localhost:3000/", StatusCode: 503},
			want: scenario.ReasonHTTPStatus,
		},
		{
			name: "wrapped refusal",
			err:  fmt.Errorf("probing target: %w", syscall.ECONNREFUSED),
			want: scenario.ReasonConnectionRefused,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := &scenario.Project{
				ID:        "demo",
				Viewports: []scenario.Viewport{{Label: "phone", Width: 320, Height: 480}},
				Scenarios: []scenario.Scenario{{Label: "home", URL: "http://localhost:3000/"}},
			}
			prober := &testutil.StubProber{Errors: map[string]error{
				"http://localhost:3000/": tt.err,
			}}
			uc := newValidator(prober)

			verdicts := uc.Execute(context.Background(), project, nil)

			if len(verdicts) != 1 {
				t.Fatalf("expected 1 verdict, got %d", len(verdicts))
			}
			v := verdicts[0]
			if v.Valid {
				t.Fatal("expected invalid verdict")
			}
			if v.Reason != tt.want {
				t.Errorf("reason = %s, want %s", v.Reason, tt.want)
			}
			if v.Message == "" {
				t.Error("expected a non-empty failure message")
			}
		})
	}
}

func TestValidateScenariosInvalidURLSkipsProbe(t *testing.T) {
	project := &scenario.Project{
		ID:        "demo",
		Viewports: []scenario.Viewport{{Label: "phone", Width: 320, Height: 480}},
		Scenarios: []scenario.Scenario{
			{Label: "relative", URL: "/no-host"},
			{Label: "bad-scheme", URL: "ftp://example.com/"},
		},
	}
	prober := &testutil.StubProber{}
	uc := newValidator(prober)

	verdicts := uc.Execute(context.Background(), project, nil)

	for _, v := range verdicts {
		if v.Valid || v.Reason != scenario.ReasonInvalidURL {
			t.Errorf("scenario %q: got (%v, %s), want invalid EINVALIDURL", v.Label, v.Valid, v.Reason)
		}
	}
	if len(prober.Probed) != 0 {
		t.Errorf("malformed URLs must not be probed, got %v", prober.Probed)
	}
}

func TestValidateScenariosProbesDistinctReferenceURL(t *testing.T) {
	project := &scenario.Project{
		ID:        "demo",
		Viewports: []scenario.Viewport{{Label: "phone", Width: 320, Height: 480}},
		Scenarios: []scenario.Scenario{
			{Label: "staging", URL: "http://staging.local/", ReferenceURL: "http://prod.local/"},
			{Label: "same", URL: "http://staging.local/", ReferenceURL: "http://staging.local/"},
		},
	}
	prober := &testutil.StubProber{Errors: map[string]error{
		"http://prod.local/": &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
	}}
	uc := newValidator(prober)

	verdicts := uc.Execute(context.Background(), project, nil)

	if verdicts[0].Valid {
		t.Error("staging should fail on its unreachable reference url")
	}
	if verdicts[0].Reason != scenario.ReasonConnectionRefused {
		t.Errorf("reason = %s, want ECONNREFUSED", verdicts[0].Reason)
	}
	if !verdicts[1].Valid {
		t.Error("identical reference url should not be probed separately")
	}
	// staging.local probed once despite appearing in both scenarios.
	seen := 0
	for _, u := range prober.Probed {
		if u == "http://staging.local/" {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("staging.local probed %d times, want 1", seen)
	}
}

func TestValidateScenariosRecordsFilterMembership(t *testing.T) {
	filter, err := scenario.NewFilter([]string{"homepage"}, "")
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	prober := &testutil.StubProber{Errors: map[string]error{
		"http://localhost:3000/blog": &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
	}}
	uc := newValidator(prober)

	verdicts := uc.Execute(context.Background(), testutil.ProjectFixture(), filter)

	var blog *scenario.Verdict
	for i := range verdicts {
		if verdicts[i].Label == "blog" {
			blog = &verdicts[i]
		}
	}
	if blog == nil {
		t.Fatal("expected a verdict for blog even though it is outside the filter")
	}
	if blog.Valid {
		t.Error("blog should be invalid")
	}
	if blog.MatchedFilter {
		t.Error("blog is outside the filter")
	}
}
