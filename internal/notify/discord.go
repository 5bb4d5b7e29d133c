// Package notify implements the fire-and-forget Discord webhook hook of
// spec.md §4.3/§9's "Position 1 in a non-private match posts a Discord
// notification; failures are swallowed." It implements match.Notifier.
//
// Deliberately plain net/http rather than a discordgo-style client
// library, since the only operation needed is a single POST of a
// JSON embed — see DESIGN.md for the stdlib justification.
package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Seednode/royaleserver/internal/logging"
)

// Discord posts match results to a Discord incoming webhook.
type Discord struct {
	webhookURL string
	client     *http.Client
	log        *logging.Logger
}

func NewDiscord(webhookURL string, log *logging.Logger) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		log:        log,
	}
}

type webhookPayload struct {
	Content string `json:"content"`
}

// NotifyPodiumWin implements match.Notifier. It is always called from a
// goroutine by match.Finish and must never block the caller or panic;
// errors are logged at trace level and otherwise swallowed.
func (d *Discord) NotifyPodiumWin(roomLabel, winnerName string) {
	if d == nil || d.webhookURL == "" {
		return
	}

	body, err := json.Marshal(webhookPayload{
		Content: winnerName + " took 1st place in " + roomLabel,
	})
	if err != nil {
		d.log.Trace("notify: marshaling webhook payload", err)
		return
	}

	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		d.log.Trace("notify: posting discord webhook", err)
		return
	}
	resp.Body.Close()
}
