package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type smsRequest struct {
	From    string   `json:"from,omitempty"`
	To      []string `json:"to"`
	Text    string   `json:"text"`
	AlertID string   `json:"alert_id"`
}

type smsResponse struct {
	Accepted int    `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// SMSComposer posts one message for all phone numbers to an HTTP SMS
// gateway at POST {baseURL}/messages.
type SMSComposer struct {
	client *resty.Client
	from   string
}

func NewSMSComposer(baseURL, token, from string, timeout time.Duration) *SMSComposer {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &SMSComposer{client: c, from: from}
}

func (s *SMSComposer) Channel() string { return "sms" }

func (s *SMSComposer) Send(ctx context.Context, a Alert) (int, error) {
	to := Phones(a.Contacts)
	if len(to) == 0 {
		return 0, nil
	}

	var out smsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(smsRequest{From: s.from, To: to, Text: a.Message.Body, AlertID: a.ID}).
		SetResult(&out).
		SetError(&out).
		Post("/messages")
	if err != nil {
		return 0, fmt.Errorf("sms gateway: %w", err)
	}
	if resp.IsError() {
		if out.Error != "" {
			return 0, fmt.Errorf("sms gateway: %s: %s", resp.Status(), out.Error)
		}
		return 0, fmt.Errorf("sms gateway: %s", resp.Status())
	}
	return len(to), nil
}
