package config

import "time"

const (
	// Identifiers
	NationalIDLength   = 11
	EnrollmentIDLength = 8

	// Protocol
	MaxProtocolAttempts = 5
	RandomProtocolMin   = 1000000000
	RandomProtocolMax   = 9999999999

	// Intake
	AnonymousFilerName         = "Anônimo"
	DefaultIntakeRatePerMinute = 30
	DefaultIntakeBurst         = 10

	// Notification
	DefaultNotifyTimeout = 30 * time.Second
	NewComplaintChannel  = "complaints:new"

	// Eligibility
	DefaultEligibilityRedisKey = "eligible_enrollments"
)
