package engine

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-github/v66/github"
)

// Classification of an inbound webhook event.
type Classification int

const (
	// ClassPing acknowledges GitHub's ping without further processing.
	ClassPing Classification = iota
	// ClassStarCreated is a star event with action "created" and
	// triggers the notification fanout.
	ClassStarCreated
	// ClassIgnored covers every other well-formed event.
	ClassIgnored
)

// StarContext carries the fields of a star event that notifications
// are rendered from.
type StarContext struct {
	Owner        string
	Repo         string
	FullName     string
	Stargazer    string
	StargazerURL string
	StarCount    int
}

// Classify routes an event by its X-GitHub-Event type and payload.
// GitHub's star webhook uses action "created" for a new star; any other
// action (including "deleted" and the "starred" shape some emulators
// send) is ignored rather than rejected. An error is returned only for
// a star event whose body is not valid JSON.
func Classify(eventType string, body []byte) (Classification, *StarContext, error) {
	switch eventType {
	case "ping":
		return ClassPing, nil, nil
	case "star":
	default:
		return ClassIgnored, nil, nil
	}

	var event github.StarEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return ClassIgnored, nil, fmt.Errorf("parsing star event: %w", err)
	}

	if event.GetAction() != "created" {
		return ClassIgnored, nil, nil
	}

	repo := event.GetRepo()
	sender := event.GetSender()

	star := &StarContext{
		Owner:        repo.GetOwner().GetLogin(),
		Repo:         repo.GetName(),
		FullName:     repo.GetFullName(),
		Stargazer:    sender.GetLogin(),
		StargazerURL: sender.GetHTMLURL(),
		StarCount:    repo.GetStargazersCount(),
	}

	return ClassStarCreated, star, nil
}
