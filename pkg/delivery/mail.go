package delivery

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/matzehuels/clubreport/pkg/errors"
)

// MailConfig holds SMTP settings.
type MailConfig struct {
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	Bcc      []string `toml:"bcc"`

	// Subject is a prefix; the long date label is appended after an em dash.
	Subject string `toml:"subject"`

	// Formats limits which artifacts are mailed; default ["pdf"].
	Formats []string `toml:"formats"`
}

// Validate checks that the config can send mail.
func (c MailConfig) Validate() error {
	if c.Host == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "mail: host is required")
	}
	if c.From == "" && c.Username == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "mail: from or username is required")
	}
	return errors.ValidateRecipients(c.Bcc)
}

// Mailer sends each accepted artifact as an attachment to the BCC list.
type Mailer struct {
	cfg  MailConfig
	send func(ctx context.Context, m *mail.Msg) error
}

// NewMailer validates cfg and returns a mailer that dials cfg.Host per message.
func NewMailer(cfg MailConfig) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Subject == "" {
		cfg.Subject = "Strava Daily Report"
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{"pdf"}
	}
	m := &Mailer{cfg: cfg}
	m.send = m.dial
	return m, nil
}

// Name implements [Deliverer].
func (m *Mailer) Name() string { return "mail:" + m.cfg.Host }

// Message builds the message for a.
func (m *Mailer) Message(a Artifact) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "mail: from address")
	}
	if err := msg.Bcc(m.cfg.Bcc...); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "mail: bcc addresses")
	}
	label := a.Label()
	msg.Subject(fmt.Sprintf("%s — %s", m.cfg.Subject, label))
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("This is all the club activities for %s.", label))
	if err := msg.AttachReader(a.Name, bytes.NewReader(a.Data)); err != nil {
		return nil, fmt.Errorf("mail: attach %s: %w", a.Name, err)
	}
	return msg, nil
}

// Deliver implements [Deliverer]. Artifacts in other formats are skipped.
func (m *Mailer) Deliver(ctx context.Context, a Artifact) error {
	if !accepts(m.cfg.Formats, a.Format) {
		return nil
	}
	msg, err := m.Message(a)
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		return errors.Wrap(errors.ErrCodeDeliveryFailed, err, "mail %s to %d recipients", a.Name, len(m.cfg.Bcc))
	}
	return nil
}

func (m *Mailer) dial(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// SplitAddresses parses a comma or semicolon separated address list such as
// the EMAIL_BCC environment variable.
func SplitAddresses(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
