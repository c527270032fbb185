// Package safety classifies reply drafts before they may be sent.
package safety

import (
	"regexp"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
)

// Verdict is the result of classifying one draft.
type Verdict struct {
	Status  model.SafetyStatus
	Reasons []string
}

type rule struct {
	name string
	re   *regexp.Regexp
}

// Classifier applies deterministic policy rules to draft content.
// Block rules catch off-platform contact and payment steering; review rules
// catch commitments an operator should sign off on.
type Classifier struct {
	blockRules  []rule
	reviewRules []rule
}

// NewClassifier builds a classifier with the default policy rules.
func NewClassifier() *Classifier {
	return &Classifier{
		blockRules: []rule{
			{"email address", regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)},
			{"phone number", regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)},
			{"off-platform contact", regexp.MustCompile(`(?i)\b(whatsapp|telegram|signal|text me|call me)\b`)},
			{"off-platform payment", regexp.MustCompile(`(?i)\b(venmo|paypal|zelle|cash\s?app|wire transfer|bank transfer|pay (me )?(in cash|outside|directly))\b`)},
		},
		reviewRules: []rule{
			{"refund commitment", regexp.MustCompile(`(?i)\brefund\b`)},
			{"discount commitment", regexp.MustCompile(`(?i)\b(discount|lower(ed)? (the )?price|price match|\d+% off)\b`)},
			{"fee waiver", regexp.MustCompile(`(?i)\b(waive|free of charge|no extra charge|won'?t charge)\b`)},
			{"schedule commitment", regexp.MustCompile(`(?i)\b(late check.?out|early check.?in|extra night)\b`)},
			{"compensation", regexp.MustCompile(`(?i)\b(compensat\w+|reimburs\w+)\b`)},
		},
	}
}

// Classify returns the verdict for content. Block wins over review; a draft
// matching no rule passes.
func (c *Classifier) Classify(content string) Verdict {
	if reasons := match(c.blockRules, content); len(reasons) > 0 {
		return Verdict{Status: model.SafetyBlock, Reasons: reasons}
	}
	if reasons := match(c.reviewRules, content); len(reasons) > 0 {
		return Verdict{Status: model.SafetyReview, Reasons: reasons}
	}
	return Verdict{Status: model.SafetyPass}
}

func match(rules []rule, content string) []string {
	var reasons []string
	for _, r := range rules {
		if r.re.MatchString(content) {
			reasons = append(reasons, r.name)
		}
	}
	return reasons
}
