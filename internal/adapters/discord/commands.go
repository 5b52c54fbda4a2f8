package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/impostor-bot/internal/app/service"
)

const (
	defaultMuteDelay = 5 * time.Second
	replyTTL         = 5 * time.Second
)

var mentionRe = regexp.MustCompile(`^<@!?(\d+)>$`)

// parseCommand separa "~dead <@123>" en ("dead", ["<@123>"]).
// El match del prefijo y del nombre es case-sensitive.
func parseCommand(content, prefix string) (name string, args []string, ok bool) {
	if !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

// handleNew: ~new [segundos]. Crea la sesión, publica el mensaje de control
// con las dos reacciones y mutea a los de voz tras la espera (0 = ya mismo).
func (r *Router) handleNew(m *discordgo.MessageCreate, args []string) {
	r.deleteMessage(m.ChannelID, m.ID)

	ctx := context.Background()
	if err := r.sessions.Start(ctx, m.GuildID, m.Author.ID); err != nil {
		r.sendTemporary(m.ChannelID, "⚠️ Ya hay una partida en curso. Usa `"+r.prefix+"end` para terminarla.", replyTTL)
		return
	}

	ctrl := r.sendMessage(m.ChannelID, fmt.Sprintf(
		"🎮 Hay una partida en curso. %s puede reaccionar con %s para llamar una reunión de emergencia.\n"+
			"Cualquiera puede reaccionar con %s para entrar al chat de muertos después de la próxima reunión.",
		m.Author.Mention(), EmerEmoji, DeadEmoji,
	))
	if ctrl == nil {
		// sin mensaje de control la partida es incontrolable: rollback
		log.Printf("[cmd] new: no pude publicar el mensaje de control, cancelo la partida")
		_ = r.sessions.End(ctx)
		return
	}
	_ = r.sessions.BindControlMessage(ctx, ctrl.ChannelID, ctrl.ID)

	go func() {
		for _, emoji := range []string{EmerEmoji, DeadEmoji} {
			if err := r.s.MessageReactionAdd(ctrl.ChannelID, ctrl.ID, emoji); err != nil {
				log.Printf("[cmd] reacción %s: %v", emoji, err)
			}
		}
	}()

	delay := defaultMuteDelay
	if len(args) > 0 {
		if secs, err := strconv.Atoi(args[0]); err == nil && secs >= 0 {
			delay = time.Duration(secs) * time.Second
		} else {
			r.sendTemporary(m.ChannelID, "La espera debe ser un número de segundos, ej: `"+r.prefix+"new 10`. Uso los 5 por defecto.", replyTTL)
		}
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	// la sesión pudo terminar durante la espera; MutePlayers lo revalida
	if err := r.sessions.MutePlayers(ctx); err != nil && !errors.Is(err, service.ErrNoSession) {
		log.Printf("[cmd] mute tras new: %v", err)
	}
}

// handleEnd: ~end. Solo initiator u owner.
func (r *Router) handleEnd(m *discordgo.MessageCreate) {
	r.deleteMessage(m.ChannelID, m.ID)

	if !r.sessions.IsInControl(m.Author.ID) {
		r.replyNotInControl(m)
		return
	}
	if err := r.sessions.End(context.Background()); err != nil {
		r.sendTemporary(m.ChannelID, "No hay ninguna partida en curso.", replyTTL)
	}
}

// handleDead: ~dead <mención>. Solo initiator u owner; para matarse a uno
// mismo está la reacción 💀.
func (r *Router) handleDead(m *discordgo.MessageCreate, args []string) {
	r.deleteMessage(m.ChannelID, m.ID)

	switch {
	case !r.sessions.InProgress():
		r.sendTemporary(m.ChannelID, "No hay ninguna partida en curso.", replyTTL)
	case !r.sessions.IsInControl(m.Author.ID):
		r.replyNotInControl(m)
	case len(args) == 0 || !mentionRe.MatchString(args[0]):
		r.sendTemporary(m.ChannelID, "Debes mencionar al usuario que quieres matar, ej: `"+r.prefix+"dead @usuario`.", replyTTL)
	default:
		target := mentionRe.FindStringSubmatch(args[0])[1]
		r.sessions.MarkDead(context.Background(), target)
		r.sendTemporary(m.ChannelID, fmt.Sprintf("💀 <@%s> ahora está muerto.", target), replyTTL)
	}
}

// handleStop: ~stop. Termina la partida si hay una y apaga el bot.
func (r *Router) handleStop(m *discordgo.MessageCreate) {
	r.deleteMessage(m.ChannelID, m.ID)

	if !r.sessions.IsInControl(m.Author.ID) {
		r.replyNotInControl(m)
		return
	}
	if r.sessions.InProgress() {
		if err := r.sessions.End(context.Background()); err != nil {
			log.Printf("[cmd] stop: %v", err)
		}
	}
	log.Printf("[cmd] stop pedido por %s, apagando", m.Author.ID)
	r.shutdown()
}

func (r *Router) replyNotInControl(m *discordgo.MessageCreate) {
	r.sendTemporary(m.ChannelID,
		"Debes haber iniciado la partida o ser owner del bot para hacer eso.\n"+
			"Para marcarte muerto a ti mismo, usa la reacción "+DeadEmoji+".",
		replyTTL)
}
