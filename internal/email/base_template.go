package email

import (
	"bytes"
	"html/template"
)

// BaseEmailData contains data for the base email wrapper
type BaseEmailData struct {
	Content template.HTML
	Subject string
}

// baseEmailTemplate is the reusable wrapper for all emails
const baseEmailTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Subject}}</title>
    <style>
        body {
            font-family: Georgia, 'Times New Roman', serif;
            line-height: 1.6;
            color: #333;
            margin: 0;
            padding: 0;
            background-color: #f7f3ed;
        }
        .email-wrapper {
            max-width: 600px;
            margin: 0 auto;
            background-color: #ffffff;
        }
        .header {
            background-color: #7a2e2e;
            color: #f7e7c6;
            padding: 20px 30px;
            font-size: 22px;
            letter-spacing: 1px;
        }
        .content {
            padding: 30px;
        }
        .footer {
            background-color: #f0ebe3;
            padding: 20px 30px;
            font-size: 12px;
            color: #777;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="email-wrapper">
        <div class="header">Khaista Boutique</div>
        <div class="content">
            {{.Content}}
        </div>
        <div class="footer">
            Handcrafted by Afghan artisans.
        </div>
    </div>
</body>
</html>
`

var baseTemplate = template.Must(template.New("base").Parse(baseEmailTemplate))

// WrapEmailContent wraps content in the base email template
func WrapEmailContent(content string, subject string) (string, error) {
	data := BaseEmailData{
		Content: template.HTML(content),
		Subject: subject,
	}

	var result bytes.Buffer
	if err := baseTemplate.Execute(&result, data); err != nil {
		return "", err
	}

	return result.String(), nil
}
