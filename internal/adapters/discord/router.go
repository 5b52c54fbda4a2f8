package discord

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/impostor-bot/internal/app/service"
)

// Router conecta los eventos del gateway con el SessionService. La cache de
// presencia (guilds, voice states) es el State de discordgo; acá solo
// filtramos y despachamos.
type Router struct {
	s       *discordgo.Session
	guildID string
	prefix  string

	sessions *service.SessionService
	shutdown func()
	limiter  *userLimiter
}

func NewRouter(s *discordgo.Session, guildID, prefix string, sessions *service.SessionService, shutdown func()) *Router {
	return &Router{
		s:        s,
		guildID:  guildID,
		prefix:   prefix,
		sessions: sessions,
		shutdown: shutdown,
		limiter:  newUserLimiter(2 * time.Second),
	}
}

func (r *Router) Handlers() {
	r.s.AddHandler(r.onGuildCreate)
	r.s.AddHandler(r.onMessageCreate)
	r.s.AddHandler(r.onMessageDelete)
	r.s.AddHandler(r.onReactionAdd)
	r.s.AddHandler(r.onReactionRemove)
	r.s.AddHandler(r.onVoiceStateUpdate)
}

func (r *Router) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if r.guildID != "" && g.ID != r.guildID {
		return
	}
	log.Printf("✅ guild disponible: %s (%s)", g.Name, g.ID)
}

// onMessageCreate: ignora bots, parsea el prefijo y despacha cada comando en
// su propia goroutine para que las esperas (mute diferido, TTL de respuestas)
// no frenen el resto de los eventos.
func (r *Router) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if r.guildID != "" && m.GuildID != r.guildID {
		return
	}

	name, args, ok := parseCommand(m.Content, r.prefix)
	if !ok {
		return
	}
	if !r.limiter.Allow(m.Author.ID) {
		return
	}
	log.Printf("[cmd] %s%s by=%s guild=%s", r.prefix, name, m.Author.ID, m.GuildID)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic en comando %s%s: %v", r.prefix, name, rec)
			}
		}()

		switch name {
		case "new":
			r.handleNew(m, args)
		case "end":
			r.handleEnd(m)
		case "dead":
			r.handleDead(m, args)
		case "stop":
			r.handleStop(m)
		}
		// texto no reconocido: se ignora, no es un error
	}()
}

// onMessageDelete: si borran el mensaje de control la partida queda
// incontrolable, así que la terminamos (desmuteando a todos).
func (r *Router) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if !r.sessions.IsControlMessage(m.ID) {
		return
	}
	log.Printf("[sesion] mensaje de control borrado, termino la partida")
	if err := r.sessions.End(context.Background()); err != nil {
		log.Printf("[sesion] end tras borrado: %v", err)
	}
}

// onReactionAdd: solo importan 🔴 y 💀 sobre el mensaje de control de la
// sesión activa. 🔴 exige estar en control; 💀 es self-service.
func (r *Router) onReactionAdd(s *discordgo.Session, e *discordgo.MessageReactionAdd) {
	if r.isSelf(e.UserID) || !r.sessions.IsControlMessage(e.MessageID) {
		return
	}
	switch e.Emoji.Name {
	case EmerEmoji:
		if !r.sessions.IsInControl(e.UserID) {
			return
		}
		if err := r.sessions.EmergencyMeeting(context.Background()); err != nil {
			log.Printf("[sesion] reunión de emergencia: %v", err)
		}
	case DeadEmoji:
		r.sessions.MarkDead(context.Background(), e.UserID)
	}
}

// onReactionRemove: retirar 🔴 levanta la reunión. Puede llegar antes que el
// add correspondiente (jitter de red); el servicio lo tolera como unmute de
// base.
func (r *Router) onReactionRemove(s *discordgo.Session, e *discordgo.MessageReactionRemove) {
	if r.isSelf(e.UserID) || e.Emoji.Name != EmerEmoji {
		return
	}
	if !r.sessions.IsControlMessage(e.MessageID) || !r.sessions.IsInControl(e.UserID) {
		return
	}
	if err := r.sessions.WithdrawEmergency(context.Background()); err != nil {
		log.Printf("[sesion] retirar emergencia: %v", err)
	}
}

// onVoiceStateUpdate: el State ya actualizó la cache; acá solo muteamos a
// quien entra a voz con una reunión activa.
func (r *Router) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if r.guildID != "" && vs.GuildID != r.guildID {
		return
	}
	if vs.ChannelID == "" || r.isSelf(vs.UserID) {
		return
	}
	r.sessions.MuteLateJoiner(vs.UserID)
}

func (r *Router) isSelf(userID string) bool {
	return r.s.State.User != nil && userID == r.s.State.User.ID
}
