package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	discordadapter "github.com/jose-valero/impostor-bot/internal/adapters/discord"
	"github.com/jose-valero/impostor-bot/internal/app/service"
	"github.com/jose-valero/impostor-bot/internal/infra/config"
	"github.com/jose-valero/impostor-bot/internal/infra/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	// DB (opcional: sin DATABASE_URL no hay historial)
	var history service.SessionStore
	if cfg.DatabaseURL != "" {
		db, err := storage.Open(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := storage.Migrate(db); err != nil {
			log.Fatal("migrate:", err)
		}
		history = storage.NewSessionRepo(db)
		log.Println("✅ DB lista y migrada")
	} else {
		log.Println("ℹ️ sin DATABASE_URL, historial de partidas deshabilitado")
	}

	// Discord session
	auth := cfg.DiscordToken
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(auth)), "bot ") {
		auth = "Bot " + strings.TrimSpace(auth)
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent
	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	log.Printf("✅ Conectado como %s (%s)", s.State.User.Username, s.State.User.ID)

	// Owners: los de la aplicación de Discord (team o dueño único) más los
	// del env OWNER_IDS.
	owners := cfg.OwnerIDs
	if app, err := s.Application("@me"); err != nil {
		log.Printf("⚠️ no pude leer la aplicación, owners solo por env: %v", err)
	} else if app.Team != nil {
		for _, tm := range app.Team.Members {
			if tm.User != nil {
				owners = append(owners, tm.User.ID)
			}
		}
	} else if app.Owner != nil {
		owners = append(owners, app.Owner.ID)
	}
	log.Printf("✅ owners: %d", len(owners))

	// Services
	voice := discordadapter.NewVoiceGateway(s)
	deadChat := discordadapter.NewDeadChat(s, cfg.DeadChannelID)
	sessions := service.NewSessionService(service.NewMuteCoordinator(voice), deadChat, history, owners)

	// ~stop y las señales del SO terminan por el mismo canal
	stop := make(chan struct{})
	var once sync.Once
	shutdown := func() { once.Do(func() { close(stop) }) }

	r := discordadapter.NewRouter(s, cfg.DiscordGuild, cfg.CommandPrefix, sessions, shutdown)
	r.Handlers()
	log.Printf("✅ escuchando comandos con prefijo %q en guild %s", cfg.CommandPrefix, cfg.DiscordGuild)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	select {
	case <-sig:
	case <-stop:
	}

	// que nadie quede muteado por un bot apagado
	if sessions.InProgress() {
		if err := sessions.End(context.Background()); err != nil {
			log.Printf("end al apagar: %v", err)
		}
	}
	log.Println("👋 apagado")
}
