// Package metrics defines the custom Prometheus collectors of the referral
// API. All of them register with the default registry through promauto and
// are exposed on /metrics next to the echoprometheus request metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "referral"

// AccountsRegisteredTotal counts successful registrations.
// Label:
//   - referred: "true" when the signup used a referral code
var AccountsRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_registered_total",
		Help:      "Total number of accounts registered, by whether a referral code was used.",
	},
	[]string{"referred"},
)

// ReferralsRecordedTotal counts referral records written during signup.
var ReferralsRecordedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "referrals_recorded_total",
		Help:      "Total number of referrals attributed to a referrer.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PasswordResetsTotal counts password reset flow steps.
// Labels:
//   - stage: "requested" or "completed"
//   - result: "success", "rejected" or "error"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset requests and completions, by result.",
	},
	[]string{"stage", "result"},
)

// RecordRegistration updates the signup counters.
func RecordRegistration(referred bool) {
	AccountsRegisteredTotal.WithLabelValues(strconv.FormatBool(referred)).Inc()
	if referred {
		ReferralsRecordedTotal.Inc()
	}
}
