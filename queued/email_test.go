package queued

import (
	"testing"
	"time"

	"github.com/npsgd-project/npsgd/task"
	"github.com/stretchr/testify/assert"
)

func TestConfirmationEmailIncludesLinkAndExpiry(t *testing.T) {
	tk := &task.Task{EmailAddress: "user@example.com", ModelName: "abmu"}

	msg := confirmationEmail(tk, "abc123", "https://npsgd.example.org", 30*time.Minute)

	assert.Equal(t, "user@example.com", msg.To)
	assert.Contains(t, msg.TextBody, "https://npsgd.example.org/confirm_submission/abc123")
	assert.Contains(t, msg.TextBody, "30m0s")
	assert.Contains(t, msg.HTMLBody, "https://npsgd.example.org/confirm_submission/abc123")
	assert.Contains(t, msg.HTMLBody, "30m0s")
}

func TestFailureEmailIncludesReasonAndReference(t *testing.T) {
	tk := &task.Task{EmailAddress: "user@example.com", ModelName: "abmu", VisibleID: "xyz789"}

	msg := failureEmail(tk, "it timed out")

	assert.Contains(t, msg.TextBody, "it timed out")
	assert.Contains(t, msg.TextBody, "xyz789")
}
