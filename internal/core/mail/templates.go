package mail

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type confirmData struct {
	Username string
	Link     string
}

type resetData struct {
	Username string
	Link     string
	Token    string
}

// ConfirmEmail renders the address-confirmation message.
func ConfirmEmail(to, username, link string) (Message, error) {
	body, err := render("confirm_email.html", confirmData{Username: username, Link: link})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, ToName: username, Subject: "Confirm your email", HTML: body}, nil
}

// ResetPassword renders the password-reset message.
func ResetPassword(to, username, link, token string) (Message, error) {
	body, err := render("reset_password.html", resetData{Username: username, Link: link, Token: token})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, ToName: username, Subject: "Reset your password", HTML: body}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
