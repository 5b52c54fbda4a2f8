package service

import "context"

// Lo implementa internal/adapters/discord.VoiceGateway
type VoiceMuter interface {
	VoiceMemberIDs(guildID string) ([]string, error)
	SetServerMute(guildID, userID string, mute bool) error
}

// Lo implementa internal/adapters/discord.DeadChat
type DeadChat interface {
	Grant(userID string) error
	Revoke(userID string) error
}

// Lo implementa internal/infra/storage.SessionRepo (historial opcional)
type SessionStore interface {
	StartSession(ctx context.Context, guildID, initiatorID string) (int64, error)
	BindControlMessage(ctx context.Context, id int64, messageID string) error
	EndSession(ctx context.Context, id int64, deadIDs []string) error
}
