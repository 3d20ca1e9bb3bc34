package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// DiscordConfig selects the voice channel recordings are played into. An
// empty ChannelID means the most attended voice channel of the guild.
type DiscordConfig struct {
	Token     string `env:"DISCORD_TOKEN, required"`
	GuildID   string `env:"DISCORD_GUILD_ID, required"`
	ChannelID string `env:"DISCORD_CHANNEL_ID"`
}

func NewDiscordConfigFromEnv() (*DiscordConfig, error) {
	return newDiscordConfig(envconfig.OsLookuper())
}

func newDiscordConfig(lookuper envconfig.Lookuper) (*DiscordConfig, error) {
	var cfg DiscordConfig
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}

	return &cfg, nil
}
