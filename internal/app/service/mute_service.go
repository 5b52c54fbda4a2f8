package service

import (
	"log"
	"sync"
)

// MuteCoordinator aplica server-mute a los miembros en voz y recuerda a
// quiénes muteó él mismo: UnmuteAll solo toca ese conjunto, nunca mutes
// ajenos (un admin que muteó a alguien a mano no pierde su mute).
type MuteCoordinator struct {
	voice VoiceMuter

	mu    sync.Mutex
	muted map[string]struct{}
}

func NewMuteCoordinator(voice VoiceMuter) *MuteCoordinator {
	return &MuteCoordinator{voice: voice, muted: map[string]struct{}{}}
}

// MuteAll mutea a todos los presentes en voz. Idempotente: los que ya
// muteamos se saltan. Fallos por miembro se loguean y se sigue con el resto.
func (m *MuteCoordinator) MuteAll(guildID string) error {
	ids, err := m.voice.VoiceMemberIDs(guildID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.muted[id]; ok {
			continue
		}
		if err := m.voice.SetServerMute(guildID, id, true); err != nil {
			log.Printf("[voz] mute %s: %v", id, err)
			continue
		}
		m.muted[id] = struct{}{}
	}
	return nil
}

// MuteOne mutea a un miembro puntual (alguien que entra a voz con la
// reunión ya activa). Mismo tracking que MuteAll.
func (m *MuteCoordinator) MuteOne(guildID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.muted[userID]; ok {
		return
	}
	if err := m.voice.SetServerMute(guildID, userID, true); err != nil {
		log.Printf("[voz] mute %s: %v", userID, err)
		return
	}
	m.muted[userID] = struct{}{}
}

// UnmuteAll desmutea únicamente a los miembros que nosotros muteamos.
// Si un unmute falla, el miembro queda en el set para reintentarlo en el
// próximo UnmuteAll.
func (m *MuteCoordinator) UnmuteAll(guildID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.muted {
		if err := m.voice.SetServerMute(guildID, id, false); err != nil {
			log.Printf("[voz] unmute %s: %v", id, err)
			continue
		}
		delete(m.muted, id)
	}
}
