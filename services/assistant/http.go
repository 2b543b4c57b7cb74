// Package assistantsvc provides assistant.Responder implementations.
package assistantsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/darasadev/darasa/core"
	"github.com/darasadev/darasa/core/assistant"
)

type httpResponder struct {
	baseURL string
	client  *http.Client
	logger  core.Logger
}

var _ assistant.Responder = (*httpResponder)(nil)

// NewHTTPResponder relays prompts to the assistant backend configured at
// Config.AssistantBaseURL.
func NewHTTPResponder(conf *core.Config, logger core.Logger) *httpResponder {
	return &httpResponder{
		baseURL: conf.AssistantBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type (
	respondRequest struct {
		History []historyMessage `json:"history"`
		Prompt  string           `json:"prompt"`
	}

	historyMessage struct {
		Role string `json:"role"`
		Body string `json:"body"`
	}

	respondResponse struct {
		Reply string `json:"reply"`
	}
)

func (r *httpResponder) Respond(ctx context.Context, history []assistant.Message, prompt string) (string, error) {
	hist := make([]historyMessage, 0, len(history))
	for _, msg := range history {
		hist = append(hist, historyMessage{Role: msg.Role, Body: msg.Body})
	}

	body, err := json.Marshal(respondRequest{History: hist, Prompt: prompt})
	if err != nil {
		return "", errors.Wrap(err, "encoding assistant request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/respond", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "building assistant request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling assistant backend")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		err := errors.Errorf("assistant backend returned status %d", res.StatusCode)
		r.logger.Error(fmt.Sprintf("assistant relay: %v", err), err)
		return "", err
	}

	var rr respondResponse
	if err := json.NewDecoder(res.Body).Decode(&rr); err != nil {
		return "", errors.Wrap(err, "decoding assistant response")
	}
	return rr.Reply, nil
}

type echoResponder struct{}

var _ assistant.Responder = (*echoResponder)(nil)

// NewEchoResponder parrots prompts back. It stands in for the assistant
// backend in local development and tests.
func NewEchoResponder() *echoResponder {
	return &echoResponder{}
}

func (r *echoResponder) Respond(ctx context.Context, history []assistant.Message, prompt string) (string, error) {
	return fmt.Sprintf("You said: %s", prompt), nil
}
