package email

import (
	"fmt"

	"github.com/bookeasy/backend/internal/models"
)

// OTPMessage renders the subject and bodies for a one-time-passcode email.
func OTPMessage(purpose models.OTPPurpose, code string) (subject, htmlBody, textBody string) {
	switch purpose {
	case models.OTPPurposePasswordReset:
		subject = "Reset your BookEasy password"
		htmlBody = fmt.Sprintf(
			`<p>We received a request to reset your password.</p>
<p>Your verification code is <strong>%s</strong>. It expires in 10 minutes.</p>
<p>If you did not request a reset, you can ignore this email.</p>`, code)
		textBody = fmt.Sprintf(
			"We received a request to reset your password.\n\nYour verification code is %s. It expires in 10 minutes.\n\nIf you did not request a reset, you can ignore this email.", code)
	case models.OTPPurposeResend:
		subject = "Your BookEasy verification code"
		htmlBody = fmt.Sprintf(
			`<p>Here is your new verification code: <strong>%s</strong>.</p>
<p>It expires in 10 minutes.</p>`, code)
		textBody = fmt.Sprintf(
			"Here is your new verification code: %s.\n\nIt expires in 10 minutes.", code)
	default:
		subject = "Verify your BookEasy email"
		htmlBody = fmt.Sprintf(
			`<p>Welcome to BookEasy!</p>
<p>Enter the code <strong>%s</strong> to verify your email address. It expires in 10 minutes.</p>`, code)
		textBody = fmt.Sprintf(
			"Welcome to BookEasy!\n\nEnter the code %s to verify your email address. It expires in 10 minutes.", code)
	}
	return subject, htmlBody, textBody
}
