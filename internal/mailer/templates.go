package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const layout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #1f2937; }
        .container { max-width: 560px; margin: 0 auto; padding: 24px; }
        .code { font-size: 28px; letter-spacing: 6px; font-weight: bold; text-align: center; padding: 16px; background: #f3f4f6; border-radius: 6px; }
        .btn { display: inline-block; padding: 10px 20px; background: #2563eb; color: #ffffff; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 32px; color: #9ca3af; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        {{template "content" .}}
        <div class="footer"><p>You received this email because someone invited you to Readiq.</p></div>
    </div>
</body>
</html>`

const inviteCodeContent = `{{define "content"}}
<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
<p>You have been invited to join <strong>{{.OrganizationName}}</strong> on Readiq.</p>
<p>Open the Readiq app and enter this code:</p>
<p class="code">{{.Code}}</p>
<p>The code expires in 24 hours.</p>
{{end}}`

const magicLinkContent = `{{define "content"}}
<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
<p>Click the button below to sign in to Readiq. The link can be used once and expires in {{.ExpiresInMinutes}} minutes.</p>
<p style="text-align: center; margin-top: 24px;"><a href="{{.URL}}" class="btn">Sign in</a></p>
<p>If the button does not work, paste this address into your browser:<br>{{.URL}}</p>
{{end}}`

var (
	inviteCodeTemplate = template.Must(template.Must(template.New("layout").Parse(layout)).Parse(inviteCodeContent))
	magicLinkTemplate  = template.Must(template.Must(template.New("layout").Parse(layout)).Parse(magicLinkContent))
)

type InviteCodeData struct {
	Name             string
	OrganizationName string
	Code             string
}

type MagicLinkData struct {
	Name             string
	URL              string
	ExpiresInMinutes int
}

func InviteCodeEmail(to string, data InviteCodeData) (Message, error) {
	body, err := render(inviteCodeTemplate, data)
	if err != nil {
		return Message{}, fmt.Errorf("rendering invite code email: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your invitation code for %s", data.OrganizationName),
		HTML:    body,
	}, nil
}

func MagicLinkEmail(to string, data MagicLinkData) (Message, error) {
	body, err := render(magicLinkTemplate, data)
	if err != nil {
		return Message{}, fmt.Errorf("rendering magic link email: %w", err)
	}
	return Message{
		To:      to,
		Subject: "Your Readiq sign-in link",
		HTML:    body,
	}, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
