package email

import (
	"strings"
	"testing"

	"github.com/bookeasy/backend/internal/models"
)

func TestOTPMessage(t *testing.T) {
	tests := []struct {
		name        string
		purpose     models.OTPPurpose
		wantSubject string
	}{
		{
			name:        "registration",
			purpose:     models.OTPPurposeRegistration,
			wantSubject: "Verify your BookEasy email",
		},
		{
			name:        "resend",
			purpose:     models.OTPPurposeResend,
			wantSubject: "Your BookEasy verification code",
		},
		{
			name:        "password reset",
			purpose:     models.OTPPurposePasswordReset,
			wantSubject: "Reset your BookEasy password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, htmlBody, textBody := OTPMessage(tt.purpose, "123456")

			if subject != tt.wantSubject {
				t.Fatalf("expected subject %q, got %q", tt.wantSubject, subject)
			}
			if !strings.Contains(htmlBody, "123456") {
				t.Fatal("expected code in html body")
			}
			if !strings.Contains(textBody, "123456") {
				t.Fatal("expected code in text body")
			}
		})
	}
}
