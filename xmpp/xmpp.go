// Package xmpp sends operational alerts (import failures, lost live
// feeds) to a configured XMPP recipient.
package xmpp

import (
	"crypto/tls"
	"errors"
	"strings"

	"github.com/mattn/go-xmpp"
	log "github.com/sirupsen/logrus"
)

type (
	Config struct {
		Host     string
		Jid      string
		Password string
		To       string
	}

	Notifier struct {
		Config Config
	}
)

func serverName(jid string) string {
	return strings.Split(jid, "@")[1]
}

// Send delivers one chat message to the configured recipient. A missing
// configuration is an error, so callers can treat notification as
// optional.
func (n Notifier) Send(message string) error {
	if len(n.Config.Jid) == 0 || len(n.Config.Password) == 0 || len(n.Config.To) == 0 {
		return errors.New("missing xmpp config")
	}

	if len(n.Config.Host) == 0 {
		n.Config.Host = serverName(n.Config.Jid)
	}

	xmpp.DefaultConfig = tls.Config{
		InsecureSkipVerify: true,
	}

	options := xmpp.Options{
		Host:     n.Config.Host,
		User:     n.Config.Jid,
		Password: n.Config.Password,
		NoTLS:    true,
		StartTLS: true,
		Session:  false,
		Status:   "xa",
	}

	talk, err := options.NewClient()
	if err != nil {
		log.WithError(err).Error("Error creating xmpp client")
		return err
	}

	_, err = talk.Send(xmpp.Chat{Remote: n.Config.To, Type: "chat", Text: message})
	if err != nil {
		log.WithError(err).Error("Error sending xmpp message")
	}
	return err
}
