package scenario

// Reason classifies why a scenario failed preflight validation. The codes
// follow the Node-style error codes the dashboard UI already understands,
// since they end up verbatim in persisted report entries.
type Reason string

const (
	// ReasonConnectionRefused means the target actively refused the connection.
	ReasonConnectionRefused Reason = "ECONNREFUSED"
	// ReasonDNSFailure means the target host could not be resolved.
	ReasonDNSFailure Reason = "ENOTFOUND"
	// ReasonTimeout means the reachability probe exceeded its deadline.
	ReasonTimeout Reason = "ETIMEDOUT"
	// ReasonInvalidURL means the scenario URL failed to parse.
	ReasonInvalidURL Reason = "EINVALIDURL"
	// ReasonHTTPStatus means the target answered with a 4xx/5xx status.
	ReasonHTTPStatus Reason = "EHTTPSTATUS"
)

// Verdict is the outcome of preflight validation for one scenario. Verdicts
// live for the duration of a single run; the orchestrator consumes the valid
// ones, the reconciler the invalid ones.
type Verdict struct {
	Label   string `json:"label"`
	Valid   bool   `json:"valid"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
	// MatchedFilter records whether the scenario is inside the run's active
	// filter. Scenarios outside the filter are still reported for awareness.
	MatchedFilter bool `json:"matchedFilter"`
}

// SplitVerdicts partitions verdicts into valid and invalid sets, preserving
// order within each.
func SplitVerdicts(verdicts []Verdict) (valid, invalid []Verdict) {
	for _, v := range verdicts {
		if v.Valid {
			valid = append(valid, v)
		} else {
			invalid = append(invalid, v)
		}
	}
	return valid, invalid
}
