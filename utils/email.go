package utils

import (
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/gomail.v2"
)

var (
	mailOnce sync.Once
	dialer   *gomail.Dialer
	fromAddr string
)

// mailDialer builds the SMTP dialer on first use; every send reuses it.
func mailDialer() *gomail.Dialer {
	mailOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: Error loading .env file. Using environment variables directly.")
		}
		port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
		fromAddr = os.Getenv("EMAIL_USER")
		dialer = gomail.NewDialer(
			os.Getenv("SMTP_HOST"),
			port,
			fromAddr,
			os.Getenv("EMAIL_PASS"),
		)
	})
	return dialer
}

func SendEmail(to, subject, body string) error {
	d := mailDialer()

	m := gomail.NewMessage()
	m.SetHeader("From", fromAddr)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return d.DialAndSend(m)
}
