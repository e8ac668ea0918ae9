package domain

// MatchKind ranks how strongly a candidate corresponds to a membership.
type MatchKind int

const (
	// NoMatch means no usable evidence, or an explicit contradiction (wrong membership number).
	NoMatch MatchKind = iota
	// PartialMatch means the number matched without corroborating names, or names matched
	// without a number.
	PartialMatch
	// Match means both the membership number and the identity corroborate.
	Match
)

func (k MatchKind) String() string {
	switch k {
	case Match:
		return "MATCH"
	case PartialMatch:
		return "PARTIAL_MATCH"
	default:
		return "NO_MATCH"
	}
}

// CheckResult is the outcome of checking one candidate.
// Membership is nil if and only if Kind is NoMatch.
type CheckResult struct {
	Kind       MatchKind
	Membership *Membership
}

func NoMatchResult() CheckResult { return CheckResult{Kind: NoMatch} }

func MatchResult(m Membership) CheckResult { return CheckResult{Kind: Match, Membership: &m} }

func PartialMatchResult(m Membership) CheckResult {
	return CheckResult{Kind: PartialMatch, Membership: &m}
}

// CompareResults totally orders results: NoMatch < PartialMatch < Match, and results of the
// same kind by their membership's natural ordering (latest end date last).
func CompareResults(a, b CheckResult) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	if a.Kind == NoMatch {
		return 0
	}
	return CompareMemberships(*a.Membership, *b.Membership)
}

// CheckedMember pairs a candidate with the result of its check.
type CheckedMember[T Candidate] struct {
	Candidate T
	Result    CheckResult
}
