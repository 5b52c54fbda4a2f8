package discord

import (
	"github.com/bwmarrin/discordgo"
)

// DeadChat concede acceso al canal de muertos con un permission overwrite
// por miembro. Con channelID vacío la feature queda apagada: solo se trackea
// la membresía en la sesión.
type DeadChat struct {
	s         *discordgo.Session
	channelID string
}

func NewDeadChat(s *discordgo.Session, channelID string) *DeadChat {
	return &DeadChat{s: s, channelID: channelID}
}

func (d *DeadChat) Grant(userID string) error {
	if d.channelID == "" {
		return nil
	}
	return d.s.ChannelPermissionSet(
		d.channelID, userID, discordgo.PermissionOverwriteTypeMember,
		discordgo.PermissionViewChannel|discordgo.PermissionSendMessages, 0,
	)
}

func (d *DeadChat) Revoke(userID string) error {
	if d.channelID == "" {
		return nil
	}
	return d.s.ChannelPermissionDelete(d.channelID, userID)
}
