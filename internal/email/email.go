package email

// Sender delivers a single message. Implementations must be safe for
// concurrent use; the auth flows treat a send failure as fatal to the
// operation that triggered it.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}
