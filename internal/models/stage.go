package models

// Stage is where a conversation stands in turning goals into a schedule.
type Stage string

const (
	StageGreeting     Stage = "greeting"
	StageDiscovery    Stage = "discovery"
	StageDetailing    Stage = "detailing"
	StageConfirmation Stage = "confirmation"
	StageScheduling   Stage = "scheduling"
	StageReview       Stage = "review"
)
