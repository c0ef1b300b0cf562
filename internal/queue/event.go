// Package queue defines the payloads exchanged over the message broker and
// the development-mode consumer that drains outbound mail to logs/email.log.
package queue

// EmailQueueName is the durable queue outbound mail is published to.  The
// delivery transport (SMTP relay, provider API) lives outside this service;
// it only has to consume this queue.
const EmailQueueName = "email.outbound"

// EmailMessage is published whenever the credential workflows need to reach a
// user out-of-band: a login OTP or a password reset link.  The body is final
// text; consumers do not need any further lookup to deliver it.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Kind    string `json:"kind"` // "otp" or "password_reset", for consumer-side routing
	SentAt  string `json:"sent_at"`
}
