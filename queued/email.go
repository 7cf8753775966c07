package queued

import (
	"fmt"
	"time"

	"github.com/npsgd-project/npsgd/mailer"
	"github.com/npsgd-project/npsgd/task"
)

// confirmationEmail builds the message sent immediately after
// client_model_create: a link the submitter must follow to move their
// task from the confirmation map into pending, and the window they have
// to do so before the confirmation entry is dropped.
func confirmationEmail(t *task.Task, code, baseURL string, expiry time.Duration) *mailer.Message {
	link := fmt.Sprintf("%s/confirm_submission/%s", baseURL, code)
	expiresIn := expiry.String()
	return &mailer.Message{
		To:      t.EmailAddress,
		Subject: fmt.Sprintf("Confirm your %s submission", t.ModelName),
		TextBody: fmt.Sprintf(
			"Please confirm your submission by visiting:\n\n%s\n\nThis link expires in %s if not used.",
			link, expiresIn,
		),
		HTMLBody: fmt.Sprintf(
			`<p>Please confirm your submission by visiting <a href="%s">this link</a>.</p><p>This link expires in %s if not used.</p>`,
			link, expiresIn,
		),
	}
}

// failureEmail builds the "your job did not complete" notice sent when a
// task is retired after exceeding its failure cap, or discarded on reload
// because its model version is no longer registered.
func failureEmail(t *task.Task, reason string) *mailer.Message {
	return &mailer.Message{
		To:      t.EmailAddress,
		Subject: fmt.Sprintf("Your %s job (%s) could not be completed", t.ModelName, t.VisibleID),
		TextBody: fmt.Sprintf(
			"We're sorry, your submitted job could not be completed: %s.\n\nJob reference: %s",
			reason, t.VisibleID,
		),
		HTMLBody: fmt.Sprintf(
			`<p>We're sorry, your submitted job could not be completed: %s.</p><p>Job reference: %s</p>`,
			reason, t.VisibleID,
		),
	}
}

// lostJobEmail is sent on startup reload when a persisted task or
// confirmation entry names a (name, version) pair the current registry no
// longer has — its class definition is gone, so it can never be run.
func lostJobEmail(t *task.Task) *mailer.Message {
	return failureEmail(t, "the model version it was submitted against is no longer available")
}
