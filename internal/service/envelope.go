package service

import (
	"fmt"
	"strings"

	"github.com/unclebandit/campaign-mailer/internal/model"
)

// Branding holds the fixed strings of the HTML envelope.
type Branding struct {
	CompanyName      string
	CompanyPhone     string
	CompanyWebsite   string
	CompanyAddress   string
	Title            string
	Tagline          string
	LogoContentID    string
	UnsubscribeEmail string
}

func DefaultBranding() Branding {
	return Branding{
		CompanyName:      "Brightline Digital",
		CompanyPhone:     "+1 (555) 010-4477",
		CompanyWebsite:   "www.brightline.digital",
		CompanyAddress:   "200 Market Street, Suite 400, Austin, TX",
		Title:            "Brightline Digital",
		Tagline:          "Growth marketing that pays for itself",
		LogoContentID:    "logo",
		UnsubscribeEmail: "unsubscribe@brightline.digital",
	}
}

// Envelope wraps personalized bodies in the branded HTML layout.
type Envelope struct {
	Brand Branding
}

func NewEnvelope(brand Branding) Envelope {
	return Envelope{Brand: brand}
}

// RenderBody converts body lines to HTML: lines starting with ✓ or • become a
// one-item list each, blank lines become <br>, everything else a paragraph.
// Consecutive bullet lines are intentionally not merged into one list.
func RenderBody(body string) string {
	var b strings.Builder
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			b.WriteString("<br>")
		case strings.HasPrefix(line, "✓"):
			b.WriteString("<ul><li>" + strings.TrimSpace(strings.TrimPrefix(line, "✓")) + "</li></ul>")
		case strings.HasPrefix(line, "•"):
			b.WriteString("<ul><li>" + strings.TrimSpace(strings.TrimPrefix(line, "•")) + "</li></ul>")
		default:
			b.WriteString("<p>" + line + "</p>")
		}
	}
	return b.String()
}

// RenderHTML returns the full HTML document for body. It is a pure function of
// its inputs and the envelope's branding.
func (e Envelope) RenderHTML(body string, sender model.SenderIdentity) string {
	brand := e.Brand
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background:#f4f6fb;font-family:Arial,Helvetica,sans-serif;color:#1f2933;">
<div style="max-width:640px;margin:0 auto;background:#ffffff;">
<div style="background:linear-gradient(135deg,#1e3a8a 0%%,#7c3aed 100%%);padding:32px 24px;text-align:center;">
<img src="cid:%s" alt="%s" style="max-height:56px;">
<h1 style="color:#ffffff;margin:16px 0 4px;font-size:24px;">%s</h1>
<p style="color:#e0e7ff;margin:0;font-size:14px;">%s</p>
</div>
<div style="padding:32px 24px;font-size:15px;line-height:1.6;">%s</div>
<div style="padding:0 24px 32px;font-size:14px;line-height:1.5;">
<p style="margin:0;">Best regards,</p>
<p style="margin:8px 0 0;font-weight:bold;">%s</p>
<p style="margin:0;">%s</p>
<p style="margin:0;">%s | %s</p>
<p style="margin:0;"><a href="mailto:%s" style="color:#4338ca;">%s</a></p>
<p style="margin:8px 0 0;font-style:italic;color:#52606d;">%s</p>
</div>
<div style="background:#111827;color:#9ca3af;padding:20px 24px;font-size:12px;text-align:center;">
<p style="margin:0;">%s | %s | %s</p>
<p style="margin:4px 0 0;">%s</p>
<p style="margin:8px 0 0;"><a href="mailto:%s?subject=Unsubscribe" style="color:#9ca3af;">Unsubscribe</a></p>
</div>
</div>
</body>
</html>`,
		brand.LogoContentID, brand.CompanyName, brand.Title, brand.Tagline,
		RenderBody(body),
		sender.Name, sender.Role, brand.CompanyName, brand.CompanyPhone, sender.Email, sender.Email, brand.Tagline,
		brand.CompanyName, brand.CompanyPhone, brand.CompanyWebsite, brand.CompanyAddress,
		brand.UnsubscribeEmail,
	)
}
