package mail

import (
	"fmt"
	"html"
	"net/url"
)

// ConfirmLink appends the user id and token to a link prefix such as
// "https://app/confirm-email?".
func ConfirmLink(prefix, userID, token string) string {
	return prefix + "id=" + url.QueryEscape(userID) + "&token=" + url.QueryEscape(token)
}

func ConfirmationEmail(to, prefix, userID, token string) Message {
	return Message{
		To:       to,
		Subject:  "Confirm your email",
		HTMLBody: fmt.Sprintf("<a href='%s'>Confirm your email</a>", html.EscapeString(ConfirmLink(prefix, userID, token))),
	}
}

func ResetPasswordEmail(to, prefix, userID, token string) Message {
	return Message{
		To:       to,
		Subject:  "Reset password",
		HTMLBody: fmt.Sprintf("<a href='%s'>Reset your password</a>", html.EscapeString(ConfirmLink(prefix, userID, token))),
	}
}

// PasswordChangedEmail notifies the user and asks them to confirm the
// account again with the rotated verification token.
func PasswordChangedEmail(to, prefix, userID, token string) Message {
	return Message{
		To:      to,
		Subject: "Your password was reset",
		HTMLBody: fmt.Sprintf("<p>Your password has been reset.</p><a href='%s'>Confirm your email</a>",
			html.EscapeString(ConfirmLink(prefix, userID, token))),
	}
}
