// Package email envía los mails transaccionales del servicio por SMTP.
// El único flujo hoy es el token de reset de password, fire-and-forget:
// un fallo de envío se loguea y nada más.
package email

import (
	"crypto/tls"
	"fmt"
	"log"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/tasknest/internal/util"
)

type Config struct {
	Host string
	Port int
	From string
	User string
	Pass string
	// TLSMode: "auto" | "starttls" | "ssl" | "none"
	TLSMode string
	// ResetURL es la base del link del mail; el token va como query param.
	ResetURL string
}

// Mailer implementa auth.Mailer sobre SMTP.
type Mailer struct {
	cfg Config
}

func NewMailer(cfg Config) *Mailer {
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	return &Mailer{cfg: cfg}
}

// SendPasswordReset manda el token de reset. Se llama en goroutine desde
// el service; los errores mueren acá.
func (m *Mailer) SendPasswordReset(to, token string) {
	link := fmt.Sprintf("%s?token=%s", m.cfg.ResetURL, token)
	text := fmt.Sprintf(
		"Pediste restablecer tu password.\n\nEntrá acá para elegir uno nuevo:\n%s\n\nEl link vence en 1 hora. Si no fuiste vos, ignorá este mail.\n",
		link)
	html := fmt.Sprintf(
		`<p>Pediste restablecer tu password.</p><p><a href="%s">Elegir un password nuevo</a></p><p>El link vence en 1 hora. Si no fuiste vos, ignorá este mail.</p>`,
		link)

	if err := m.send(to, "Restablecer tu password", html, text); err != nil {
		log.Printf(`{"level":"error","msg":"reset_mail_err","to":"%s","err":"%v"}`, util.MaskEmail(to), err)
		return
	}
	log.Printf(`{"level":"info","msg":"reset_mail_sent","to":"%s"}`, util.MaskEmail(to))
}

func (m *Mailer) send(to, subject, htmlBody, textBody string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)

	// multipart/alternative: txt + html
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	d := mail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Pass)
	d.TLSConfig = &tls.Config{ServerName: m.cfg.Host}

	switch m.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true} // sólo dev
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
