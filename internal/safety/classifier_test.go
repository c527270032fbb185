package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
)

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name    string
		content string
		want    model.SafetyStatus
	}{
		{"plain reply passes", "Hi Maria, check-in starts at 3pm. The lockbox code is in the app.", model.SafetyPass},
		{"empty passes", "", model.SafetyPass},
		{"email address blocks", "Reach me at host@example.com for anything else.", model.SafetyBlock},
		{"phone number blocks", "You can call +1 415 555 0134 anytime.", model.SafetyBlock},
		{"whatsapp blocks", "Message me on WhatsApp, it's faster.", model.SafetyBlock},
		{"off-platform payment blocks", "If you pay me directly via Zelle I can skip the service fee.", model.SafetyBlock},
		{"refund needs review", "We can refund the cleaning fee for the inconvenience.", model.SafetyReview},
		{"discount needs review", "I can offer a 10% off for your next stay.", model.SafetyReview},
		{"late checkout needs review", "Late checkout until 1pm is fine.", model.SafetyReview},
		{"fee waiver needs review", "We won't charge for the extra guest.", model.SafetyReview},
		{"block wins over review", "I'll refund you via PayPal.", model.SafetyBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := c.Classify(tt.content)
			assert.Equal(t, tt.want, v.Status)
			if tt.want != model.SafetyPass {
				assert.NotEmpty(t, v.Reasons)
			}
		})
	}
}
