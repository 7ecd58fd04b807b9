package emails

import (
	"fmt"
	"strings"
	"time"
)

const (
	themePrimary  = "#0F766E"
	themeTextMain = "#1F2937"
	themeBgBody   = "#F3F4F6"
)

// EmailLayout wraps content in the shared HTML shell.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>BizMart</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    h1 { font-size: 22px; color: %s; }
    p { font-size: 16px; line-height: 1.6; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0">
    <tr><td align="center" style="padding: 32px 0;">
      <table role="presentation" width="600" style="background:#FFFFFF;border-radius:8px;padding:32px;">
        <tr><td>%s</td></tr>
        <tr><td style="font-size:13px;color:#6B7280;padding-top:24px;">&copy; %d BizMart</td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`, themeBgBody, themeTextMain, themePrimary, contentHTML, time.Now().Year())
}

// EscapeHTML escapes the five HTML-significant characters.
func EscapeHTML(s string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	).Replace(s)
}
