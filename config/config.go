package config

import (
	"log"
	"strings"

	"verify-bot/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads the process configuration from the environment.
func Load() *model.Config {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	viper.AutomaticEnv()
	viper.SetDefault("SUS_ROLE_NAME", "Sus")
	viper.SetDefault("PROCESS_DELAY_MS", 800)
	viper.SetDefault("DATA_DIR", "./data")

	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		log.Fatal("Error: BOT_TOKEN environment variable not set")
	}

	appID := viper.GetString("APP_ID")
	if appID == "" {
		log.Fatal("Error: APP_ID environment variable not set")
	}

	guildID := viper.GetString("GUILD_ID")
	if guildID == "" {
		log.Fatal("Error: GUILD_ID environment variable not set")
	}

	verifyChannelID := viper.GetString("VERIFY_CHANNEL_ID")
	if verifyChannelID == "" {
		log.Fatal("Error: VERIFY_CHANNEL_ID environment variable not set")
	}

	susChatChannelID := viper.GetString("SUS_CHAT_CHANNEL_ID")
	if susChatChannelID == "" {
		log.Fatal("Error: SUS_CHAT_CHANNEL_ID environment variable not set")
	}

	logChannelID := viper.GetString("SUS_LOG_CHANNEL_ID")
	if logChannelID == "" {
		log.Println("Warning: SUS_LOG_CHANNEL_ID not set, audit entries fall back to console output")
	}

	var adminRoleIDs []string
	for _, id := range strings.Split(viper.GetString("ADMIN_ROLE_IDS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			adminRoleIDs = append(adminRoleIDs, id)
		}
	}
	if len(adminRoleIDs) == 0 {
		log.Println("Warning: ADMIN_ROLE_IDS not set, admin commands will be refused for everyone")
	}

	return &model.Config{
		BotToken:         token,
		AppID:            appID,
		GuildID:          guildID,
		VerifyChannelID:  verifyChannelID,
		SusChatChannelID: susChatChannelID,
		LogChannelID:     logChannelID,
		SusRoleName:      viper.GetString("SUS_ROLE_NAME"),
		AdminRoleIDs:     adminRoleIDs,
		ProcessDelayMs:   viper.GetInt("PROCESS_DELAY_MS"),
		DataDir:          viper.GetString("DATA_DIR"),
	}
}
