package agent

import (
	"encoding/json"
	"strings"

	"github.com/rahul/planwise/internal/plan"
)

// ParseCards pulls the card array out of free-form model output.
//
// It takes everything from the first '[' to the last ']' and decodes that as
// an array of card records. This tolerates prose and code fences around the
// JSON but is not a balanced-bracket scan: stray brackets in the prose make
// the span undecodable. No span and a bad span both return an empty result,
// so "the model declined" and "the model wrote broken JSON" look the same.
// Records without info or description come through with empty strings.
func ParseCards(raw string) []plan.CardDescriptor {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || start > end {
		return []plan.CardDescriptor{}
	}

	var cards []plan.CardDescriptor
	if err := json.Unmarshal([]byte(raw[start:end+1]), &cards); err != nil {
		return []plan.CardDescriptor{}
	}
	if cards == nil {
		return []plan.CardDescriptor{}
	}
	return cards
}
