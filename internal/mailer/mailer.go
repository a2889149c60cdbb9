package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

const (
	FromName        = "Aerokit"
	maxRetries      = 3
	WelcomeTemplate = "welcome.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}

// render executes the "subject" and "body" blocks of an embedded template.
func render(templateFile string, data any) (string, string, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return "", "", err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return "", "", err
	}

	return subject.String(), body.String(), nil
}
