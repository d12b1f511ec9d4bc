package classifier

import "strings"

// Tag is the outcome of matching a USSD response against keyword sets.
type Tag string

const (
	TagSuccess          Tag = "success"
	TagFailure          Tag = "failure"
	TagAlreadyProcessed Tag = "already_processed"
	TagUnclassified     Tag = "unclassified"
)

// alreadyMarker is checked before any keyword set.
const alreadyMarker = "already"

// Keywords holds the configured success and failure keyword sets.
type Keywords struct {
	Success []string `json:"success_keywords"`
	Failure []string `json:"failure_keywords"`
}

// Normalize trims and lower-cases every keyword, dropping empties and
// duplicates while keeping the first occurrence order.
func (k Keywords) Normalize() Keywords {
	return Keywords{
		Success: normalize(k.Success),
		Failure: normalize(k.Failure),
	}
}

// Match records each check on its own. Several can hold for one response,
// e.g. "already successfully processed" is both Already and Success.
type Match struct {
	Success bool
	Failure bool
	Already bool
}

// MatchAll runs every check with case-insensitive substring matching.
func MatchAll(response string, success, failure []string) Match {
	lower := strings.ToLower(response)
	return Match{
		Success: containsAny(lower, success),
		Failure: containsAny(lower, failure),
		Already: strings.Contains(lower, alreadyMarker),
	}
}

// Tag picks the single outcome in already > success > failure order.
func (m Match) Tag() Tag {
	switch {
	case m.Already:
		return TagAlreadyProcessed
	case m.Success:
		return TagSuccess
	case m.Failure:
		return TagFailure
	default:
		return TagUnclassified
	}
}

// Classify runs the already > success > failure check order with
// case-insensitive substring matching.
func Classify(response string, success, failure []string) Tag {
	return MatchAll(response, success, failure).Tag()
}

// Match runs every check against both sets of k.
func (k Keywords) Match(response string) Match {
	return MatchAll(response, k.Success, k.Failure)
}

// Classify is a convenience for classifying against both sets of k.
func (k Keywords) Classify(response string) Tag {
	return Classify(response, k.Success, k.Failure)
}

func containsAny(lowerResponse string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowerResponse, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func normalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
