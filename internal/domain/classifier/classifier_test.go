package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	success := []string{"successfully", "Confirmed"}
	failure := []string{"failed", "insufficient"}

	tests := []struct {
		name     string
		response string
		expected Tag
	}{
		{"success keyword any case", "Your request SUCCESSFULLY processed", TagSuccess},
		{"success keyword upper in set", "Purchase confirmed.", TagSuccess},
		{"failure keyword", "Transaction FAILED, try later", TagFailure},
		{"success wins over failure", "successfully reversed the failed charge", TagSuccess},
		{"already wins over success", "Already successfully subscribed", TagAlreadyProcessed},
		{"already wins over failure", "ALREADY failed today", TagAlreadyProcessed},
		{"already alone", "You have already bought this offer", TagAlreadyProcessed},
		{"no match", "Menu: 1. Data 2. Minutes", TagUnclassified},
		{"empty response", "", TagUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.response, success, failure))
		})
	}
}

func TestClassify_SubstringNotWholeWord(t *testing.T) {
	assert.Equal(t, TagSuccess, Classify("prepaid bundle active", []string{"paid"}, nil))
}

func TestClassify_EmptyKeywordSetsNeverMatch(t *testing.T) {
	assert.Equal(t, TagUnclassified, Classify("anything at all", nil, nil))
	assert.Equal(t, TagUnclassified, Classify("anything at all", []string{}, []string{}))
	assert.Equal(t, TagUnclassified, Classify("anything at all", []string{""}, []string{""}))
}

func TestClassify_AlreadyIgnoresKeywordSets(t *testing.T) {
	responses := []string{"already", "ALREADY", "AlReAdY done", "you are already-enrolled"}
	for _, r := range responses {
		assert.Equal(t, TagAlreadyProcessed, Classify(r, nil, nil), r)
		assert.Equal(t, TagAlreadyProcessed, Classify(r, []string{"done"}, []string{"enrolled"}), r)
	}
}

func TestKeywords_Normalize(t *testing.T) {
	k := Keywords{
		Success: []string{" Successfully ", "successfully", "", "OK"},
		Failure: nil,
	}

	n := k.Normalize()

	assert.Equal(t, []string{"successfully", "ok"}, n.Success)
	assert.Empty(t, n.Failure)
	assert.NotNil(t, n.Failure)
}

func TestKeywords_Classify(t *testing.T) {
	k := Keywords{Success: []string{"successfully"}}

	assert.Equal(t, TagSuccess, k.Classify("Your request SUCCESSFULLY processed"))
	assert.Equal(t, TagUnclassified, k.Classify("pending"))
}

func TestKeywords_MatchEvaluatesEveryCheck(t *testing.T) {
	k := Keywords{Success: []string{"successfully"}, Failure: []string{"failed"}}

	m := k.Match("Request already SUCCESSFULLY processed")
	assert.Equal(t, Match{Success: true, Already: true}, m)
	assert.Equal(t, TagAlreadyProcessed, m.Tag())

	m = k.Match("successfully reversed the failed payment")
	assert.Equal(t, Match{Success: true, Failure: true}, m)
	assert.Equal(t, TagSuccess, m.Tag())

	assert.Equal(t, TagUnclassified, k.Match("pending").Tag())
}
