package convo

import (
	"strings"

	"go.uber.org/zap"
)

// ConstraintSet is a point-in-time view of the constraints derived from
// agent speech. RejectedItems and ConfirmedUpdates grow monotonically for
// the life of the conversation; PendingOffer holds at most the latest
// agent question-with-options.
type ConstraintSet struct {
	RejectedItems    []string
	ConfirmedUpdates []string
	PendingOffer     string
}

// Empty reports whether no constraints are active.
func (s ConstraintSet) Empty() bool {
	return len(s.RejectedItems) == 0 && len(s.ConfirmedUpdates) == 0 && s.PendingOffer == ""
}

// ConstraintTracker accumulates constraints from agent utterances. Rejected
// and confirmed sentences are stored verbatim (trimmed) so specific sizes
// and items can be injected into the prompt unchanged; dedup is by exact
// text, so two phrasings of the same fact are tracked separately.
type ConstraintTracker struct {
	classifier Classifier
	logger     *zap.Logger

	rejected     []string
	confirmed    []string
	pendingOffer string
}

// NewConstraintTracker builds a tracker. A nil classifier falls back to the
// phrase-trigger default.
func NewConstraintTracker(classifier Classifier, logger *zap.Logger) *ConstraintTracker {
	if classifier == nil {
		classifier = PhraseClassifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintTracker{classifier: classifier, logger: logger}
}

// ObserveAgentUtterance classifies an agent utterance and updates the
// constraint sets.
func (t *ConstraintTracker) ObserveAgentUtterance(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	c := t.classifier.Classify(text)

	if c.Rejection && !contains(t.rejected, trimmed) {
		t.rejected = append(t.rejected, trimmed)
		t.logger.Debug("rejection noted", zap.String("utterance", trimmed))
	}
	if c.Confirmation && !contains(t.confirmed, trimmed) {
		t.confirmed = append(t.confirmed, trimmed)
		t.logger.Debug("confirmation noted", zap.String("utterance", trimmed))
	}
	if c.Offer {
		t.pendingOffer = trimmed
		t.logger.Debug("offer noted", zap.String("utterance", trimmed))
	}
}

// ObservePersonaUtterance clears the pending offer: once the persona has
// spoken, the offer is answered and must not constrain the next turn.
func (t *ConstraintTracker) ObservePersonaUtterance() {
	t.pendingOffer = ""
}

// Snapshot returns a copy of the active constraints.
func (t *ConstraintTracker) Snapshot() ConstraintSet {
	return ConstraintSet{
		RejectedItems:    append([]string(nil), t.rejected...),
		ConfirmedUpdates: append([]string(nil), t.confirmed...),
		PendingOffer:     t.pendingOffer,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
