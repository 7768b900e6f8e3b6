package convo

import "strings"

// Classification describes what constraints an agent utterance implies. A
// single utterance can carry more than one signal ("sorry, we don't have
// that. We have Pepsi or Sprite, which would you like?").
type Classification struct {
	Rejection    bool
	Confirmation bool
	Offer        bool
}

// None reports whether the utterance carried no constraint signal.
func (c Classification) None() bool {
	return !c.Rejection && !c.Confirmation && !c.Offer
}

// Classifier decides which constraint signals an agent utterance carries.
// The phrase-trigger implementation is deliberately conservative: constraint
// detection must be deterministic and cheap because it runs on every turn,
// before the (expensive) generation call.
type Classifier interface {
	Classify(utterance string) Classification
}

// Agent phrasings that mean an item is unavailable.
var rejectionPhrases = []string{
	"don't have", "do not have", "we don't", "we do not",
	"not available", "unfortunately", "i'm sorry, we",
	"sorry, we don't", "sorry, we do not", "i'm sorry,",
	"can't add", "cannot add",
}

// Agent phrasings that confirm an action is already done.
var confirmationPhrases = []string{
	"i've already", "i have already", "already updated",
	"already added", "already removed", "already swapped",
	"already changed", "already included", "already have the",
	"you already have", "i've updated your order",
	"i've added", "i've removed", "i've swapped",
}

// Agent phrasings that introduce a list of options. Only count as an offer
// when the utterance actually asks a question.
var offerPhrases = []string{
	"we have", "you can choose", "you can pick",
	"would you like", "which would you", "what size",
	"what kind", "what flavor", "which size", "which flavor",
}

// PhraseClassifier is the default trigger-list classifier.
type PhraseClassifier struct{}

// Classify checks the lowercased utterance against the three trigger lists.
func (PhraseClassifier) Classify(utterance string) Classification {
	lower := strings.ToLower(utterance)

	var c Classification
	c.Rejection = containsAny(lower, rejectionPhrases)
	c.Confirmation = containsAny(lower, confirmationPhrases)
	c.Offer = strings.Contains(utterance, "?") && containsAny(lower, offerPhrases)
	return c
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
