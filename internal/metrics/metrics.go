package metrics

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_signups_total",
		Help: "Accounts created.",
	})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Login attempts by method and outcome.",
	}, []string{"method", "outcome"})

	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_otp_issued_total",
		Help: "One-time passcodes issued by purpose.",
	}, []string{"purpose"})

	OTPValidatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_otp_validated_total",
		Help: "One-time passcode validations by outcome.",
	}, []string{"outcome"})

	CeremoniesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_passkey_ceremonies_total",
		Help: "Passkey ceremony completions by kind and outcome.",
	}, []string{"kind", "outcome"})
)

// Handler exposes the default prometheus registry as a fiber handler.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
