package model

// Config stores the process-level configuration loaded from the environment.
type Config struct {
	BotToken         string
	AppID            string
	GuildID          string
	VerifyChannelID  string
	SusChatChannelID string
	LogChannelID     string
	SusRoleName      string
	AdminRoleIDs     []string
	ProcessDelayMs   int
	DataDir          string
}
