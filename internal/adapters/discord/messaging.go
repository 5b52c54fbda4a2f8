package discord

import (
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Helpers de mensajería best-effort: un fallo se loguea y no corta el flujo.

func (r *Router) deleteMessage(channelID, messageID string) {
	if err := r.s.ChannelMessageDelete(channelID, messageID); err != nil {
		log.Printf("[msg] delete %s: %v", messageID, err)
	}
}

func (r *Router) sendMessage(channelID, content string) *discordgo.Message {
	msg, err := r.s.ChannelMessageSend(channelID, content)
	if err != nil {
		log.Printf("[msg] send: %v", err)
		return nil
	}
	return msg
}

// sendTemporary publica una respuesta y la borra pasado el ttl.
// El timer no bloquea al comando que la emitió.
func (r *Router) sendTemporary(channelID, content string, ttl time.Duration) {
	msg := r.sendMessage(channelID, content)
	if msg == nil || ttl <= 0 {
		return
	}
	time.AfterFunc(ttl, func() { r.deleteMessage(msg.ChannelID, msg.ID) })
}
