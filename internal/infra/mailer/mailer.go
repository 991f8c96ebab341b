package mailer

import (
	"fmt"
	"strconv"

	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c Config) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// Mailer sends transactional mail over SMTP.
type Mailer struct {
	cfg Config
}

func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) dialer() (*gomail.Dialer, error) {
	port, err := strconv.Atoi(m.cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp port %q: %w", m.cfg.Port, err)
	}
	return gomail.NewDialer(m.cfg.Host, port, m.cfg.Username, m.cfg.Password), nil
}

func (m *Mailer) send(msg *gomail.Message) error {
	if !m.cfg.Enabled() {
		return fmt.Errorf("smtp not configured")
	}
	d, err := m.dialer()
	if err != nil {
		return err
	}
	return d.DialAndSend(msg)
}

func (m *Mailer) SendWelcome(to, name, appURL string) error {
	return m.send(WelcomeMessage(m.cfg.From, to, name, appURL))
}

// WelcomeMessage builds the post-signup email.
func WelcomeMessage(from, to, name, appURL string) *gomail.Message {
	if name == "" {
		name = to
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Welcome to Winning Products")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour account is ready. New winning products drop every day:\n\n%s\n\nUpgrade to Pro to see every product, including upcoming releases, the moment you sign in.\n",
		name, appURL,
	))
	return msg
}
