package model

// Verification method names as stored in the settings row.
const (
	MethodButton = "button"
	MethodWord   = "word"
	MethodMath   = "math"
)

// GuildSettings holds the runtime configuration for the managed guild.
// It is persisted write-through: every admin mutation is saved immediately.
type GuildSettings struct {
	SusRoleID                    string
	VerifyMessageID              string
	AdminPromptMessageID         string
	VerificationMethods          []string
	AutoscanEnabled              bool
	ActionDelayMs                int
	DailyScanSchedule            string
	LogChannelID                 string
	PeriodicNotifyEnabled        bool
	PeriodicNotifySchedule       string
	PeriodicNotifyMaxPerRun      int
	PeriodicNotifyPaceMs         int
	PeriodicMentionDeleteSeconds int
}

// DefaultSettings returns the settings seeded on first run.
func DefaultSettings(actionDelayMs int) *GuildSettings {
	return &GuildSettings{
		VerificationMethods:          []string{MethodButton},
		AutoscanEnabled:              false,
		ActionDelayMs:                actionDelayMs,
		DailyScanSchedule:            "0 0 * * *",
		PeriodicNotifyEnabled:        true,
		PeriodicNotifySchedule:       "0,30 * * * *",
		PeriodicNotifyMaxPerRun:      2000,
		PeriodicNotifyPaceMs:         1200,
		PeriodicMentionDeleteSeconds: 30,
	}
}

// HasMethod reports whether the given verification method is enabled.
func (g *GuildSettings) HasMethod(method string) bool {
	for _, m := range g.VerificationMethods {
		if m == method {
			return true
		}
	}
	return false
}

// ChallengeMethods returns the enabled methods that require a typed answer.
func (g *GuildSettings) ChallengeMethods() []string {
	var out []string
	for _, m := range g.VerificationMethods {
		if m == MethodWord || m == MethodMath {
			out = append(out, m)
		}
	}
	return out
}

// ButtonOnly reports whether instant button verification is the sole method.
func (g *GuildSettings) ButtonOnly() bool {
	return len(g.VerificationMethods) == 1 && g.VerificationMethods[0] == MethodButton
}

// IsKnownMethod validates a method name coming from a select menu.
func IsKnownMethod(method string) bool {
	return method == MethodButton || method == MethodWord || method == MethodMath
}
