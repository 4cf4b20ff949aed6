package email

import (
	"fmt"
	"net/smtp"

	"github.com/fileset/fileset/pkg/config"
)

type Service struct {
	Config *config.Config
}

func NewService(cfg *config.Config) *Service {
	return &Service{Config: cfg}
}

func (s *Service) IsEnabled() bool {
	return s.Config.SMTPHost != "" && s.Config.SMTPPass != ""
}

// SendDeployNotification tells the admin a branch was promoted to a new
// manifest, either directly by an ingest call or by a timed deploy cron run.
func (s *Service) SendDeployNotification(to, branch string, manifestID int64) error {
	if s.Config.SMTPHost == "" || s.Config.SMTPPass == "" {
		fmt.Println("[Email] SMTP Host or Password not configured. Skipping email (Simulated).")
		return nil
	}

	auth := smtp.PlainAuth("", s.Config.SMTPUser, s.Config.SMTPPass, s.Config.SMTPHost)

	subject := "Subject: Fileset deploy notification\n"
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"

	body := fmt.Sprintf(`
    <html>
    <body>
        <h2>Branch %s promoted</h2>
        <p>Branch <b>%s</b> now points at manifest %d.</p>
    </body>
    </html>
    `, branch, branch, manifestID)

	msg := []byte(subject + mime + body)

	addr := fmt.Sprintf("%s:%s", s.Config.SMTPHost, s.Config.SMTPPort)
	err := smtp.SendMail(addr, auth, s.Config.SMTPFrom, []string{to}, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	fmt.Printf("[Email] Sent deploy notification for branch %s to %s\n", branch, to)
	return nil
}
