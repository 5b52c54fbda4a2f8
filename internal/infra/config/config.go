package config

import (
	"log"
	"os"
	"strings"
)

type Config struct {
	DiscordToken string
	DiscordGuild string

	DatabaseURL   string // opcional: sin DB no hay historial de partidas
	DeadChannelID string // opcional: canal del chat de muertos
	CommandPrefix string // default "~"
	OwnerIDs      []string
}

func Load() Config {
	get := func(k string, req bool) string {
		v := os.Getenv(k)
		if v == "" && req {
			log.Fatalf("faltante env %s", k)
		}
		return v
	}

	cfg := Config{
		DiscordToken:  get("DISCORD_BOT_TOKEN", true),
		DiscordGuild:  get("DISCORD_GUILD_ID", true),
		DatabaseURL:   get("DATABASE_URL", false),
		DeadChannelID: get("DEAD_CHANNEL_ID", false),
		CommandPrefix: get("COMMAND_PREFIX", false),
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "~"
	}
	// owners extra además de los de la aplicación de Discord
	if raw := get("OWNER_IDS", false); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.OwnerIDs = append(cfg.OwnerIDs, id)
			}
		}
	}
	return cfg
}
