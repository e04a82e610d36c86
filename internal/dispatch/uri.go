package dispatch

import (
	"context"
	"net/url"
	"strings"
)

// Opener hands a mailto: or sms: URI to whatever can act on it. The CLI
// prints it.
type Opener func(ctx context.Context, uri string) error

// URIComposer builds the mailto: and sms: links a phone would open. It is the
// fallback when no transport is configured.
type URIComposer struct {
	open Opener
}

func NewURIComposer(open Opener) *URIComposer {
	return &URIComposer{open: open}
}

func (u *URIComposer) Channel() string { return "uri" }

func (u *URIComposer) Send(ctx context.Context, a Alert) (int, error) {
	n := 0
	if emails := Emails(a.Contacts); len(emails) > 0 {
		if err := u.open(ctx, MailtoURI(emails, a.Message)); err != nil {
			return n, err
		}
		n += len(emails)
	}
	if phones := Phones(a.Contacts); len(phones) > 0 {
		if err := u.open(ctx, SMSURI(phones, a.Message)); err != nil {
			return n, err
		}
		n += len(phones)
	}
	return n, nil
}

// MailtoURI returns mailto:a,b?subject=...&body=... with %20 for spaces.
func MailtoURI(emails []string, m Message) string {
	return "mailto:" + strings.Join(emails, ",") +
		"?subject=" + escape(m.Subject) +
		"&body=" + escape(m.Body)
}

// SMSURI returns sms:p1,p2?body=...
func SMSURI(phones []string, m Message) string {
	return "sms:" + strings.Join(phones, ",") + "?body=" + escape(m.Body)
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
