package discord

import (
	"github.com/bwmarrin/discordgo"
)

// VoiceGateway implementa service.VoiceMuter sobre la sesión de discordgo.
// La membresía de voz sale del State (la cache lo mantiene al día con los
// VoiceStateUpdate del gateway); si el State no tiene el guild, caemos a la
// API.
type VoiceGateway struct {
	s *discordgo.Session
}

func NewVoiceGateway(s *discordgo.Session) *VoiceGateway {
	return &VoiceGateway{s: s}
}

func (v *VoiceGateway) VoiceMemberIDs(guildID string) ([]string, error) {
	g, err := v.safeGetGuild(guildID)
	if err != nil {
		return nil, err
	}
	me := ""
	if v.s.State.User != nil {
		me = v.s.State.User.ID
	}
	ids := make([]string, 0, len(g.VoiceStates))
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == "" || vs.UserID == me {
			continue
		}
		ids = append(ids, vs.UserID)
	}
	return ids, nil
}

func (v *VoiceGateway) SetServerMute(guildID, userID string, mute bool) error {
	return v.s.GuildMemberMute(guildID, userID, mute)
}

func (v *VoiceGateway) safeGetGuild(id string) (*discordgo.Guild, error) {
	if g, err := v.s.State.Guild(id); err == nil && g != nil {
		return g, nil
	}
	g, err := v.s.Guild(id)
	if err != nil {
		return nil, err
	}
	_ = v.s.State.GuildAdd(g)
	return g, nil
}
