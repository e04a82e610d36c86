package dispatch

import (
	"github.com/dmitrijs2005/safecheck/internal/config"
	"github.com/dmitrijs2005/safecheck/internal/logging"
)

// FromConfig assembles a Fanout from the transport settings in cfg. Every
// configured transport is used; with none configured the URI composer is the
// only channel. The returned cleanup disconnects long-lived clients.
func FromConfig(cfg *config.Config, l logging.Logger, open Opener) (*Fanout, func(), error) {
	var composers []Composer
	cleanup := func() {}

	if cfg.SMTPHost != "" {
		client, err := NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		if err != nil {
			return nil, nil, err
		}
		composers = append(composers, NewEmailComposer(client, cfg.SMTPFrom))
	}

	if cfg.SMSGatewayURL != "" {
		composers = append(composers, NewSMSComposer(cfg.SMSGatewayURL, cfg.SMSGatewayToken, cfg.SMSFrom, cfg.DispatchTimeout))
	}

	if cfg.MQTTBroker != "" {
		client, err := DialMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTUsername, cfg.MQTTPassword, cfg.DispatchTimeout)
		if err != nil {
			return nil, nil, err
		}
		composers = append(composers, NewMQTTComposer(client, cfg.MQTTTopic))
		cleanup = func() { client.Disconnect(250) }
	}

	if len(composers) == 0 {
		composers = append(composers, NewURIComposer(open))
	}

	return NewFanout(l, DefaultMessage, composers...), cleanup, nil
}
