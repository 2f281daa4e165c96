package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var starTemplate = template.Must(template.New("star").Parse(`<h1>New Star Notification</h1>
<p>The repository <strong>{{.FullName}}</strong> you subscribed to just got a new star!</p>
<p><a href="{{.StargazerURL}}">{{.Stargazer}}</a> starred it at {{.StarredAt}}.</p>
<p>Current star count: {{.StarCount}}</p>
<hr>
<p><small>This email was sent automatically by StarNotify.</small></p>
`))

var confirmTemplate = template.Must(template.New("confirm").Parse(`<h1>Subscription Confirmed</h1>
<p>You are now subscribed to star notifications for <strong>{{.Owner}}/{{.Repo}}</strong>.</p>
<p>We will email you whenever the repository receives a new star.</p>
<p>Thank you for using StarNotify!</p>
`))

// StarNotification renders the subject and HTML body of a new-star
// notification email.
func StarNotification(fullName, stargazer, stargazerURL string, starCount int, at time.Time) (subject, body string, err error) {
	subject = fmt.Sprintf("🌟 %s got a new star!", fullName)

	var buf bytes.Buffer
	err = starTemplate.Execute(&buf, struct {
		FullName     string
		Stargazer    string
		StargazerURL string
		StarCount    int
		StarredAt    string
	}{
		FullName:     fullName,
		Stargazer:    stargazer,
		StargazerURL: stargazerURL,
		StarCount:    starCount,
		StarredAt:    at.Format(time.RFC1123),
	})
	if err != nil {
		return "", "", fmt.Errorf("rendering star notification: %w", err)
	}

	return subject, buf.String(), nil
}

// SubscriptionConfirmation renders the email sent when a subscription
// is verified.
func SubscriptionConfirmation(owner, repo string) (subject, body string, err error) {
	subject = fmt.Sprintf("Subscribed to star notifications for %s/%s", owner, repo)

	var buf bytes.Buffer
	err = confirmTemplate.Execute(&buf, struct {
		Owner string
		Repo  string
	}{Owner: owner, Repo: repo})
	if err != nil {
		return "", "", fmt.Errorf("rendering confirmation: %w", err)
	}

	return subject, buf.String(), nil
}
