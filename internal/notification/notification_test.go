package notification

import (
	"strings"
	"testing"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	title, msg := Render(KindSubmissionApproved, map[string]any{
		"points": 40,
		"streak": 3,
	})
	if title != "Approved!" {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(msg, "+40 points") || !strings.Contains(msg, "3 days") {
		t.Errorf("message = %q, placeholders not substituted", msg)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	title, msg := Render(Kind("made_up"), nil)
	if title != "made_up" || msg != "" {
		t.Errorf("Render unknown = %q, %q", title, msg)
	}
}

func TestRenderMissingDataLeavesPlaceholder(t *testing.T) {
	_, msg := Render(KindSubmissionApproved, nil)
	if !strings.Contains(msg, "{points}") {
		t.Errorf("message = %q, want untouched placeholder", msg)
	}
}

func TestAllKindsHaveTemplates(t *testing.T) {
	kinds := []Kind{
		KindChallengeAssigned, KindAssignmentReminder, KindAssignmentExpired,
		KindAssignmentSkipped, KindSubmissionReceived, KindSubmissionApproved,
		KindSubmissionRejected, KindAchievementUnlocked, KindReferralJoined,
	}
	for _, k := range kinds {
		if _, ok := templates[k]; !ok {
			t.Errorf("kind %s has no template", k)
		}
	}
}
