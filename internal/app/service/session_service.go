package service

import (
	"context"
	"errors"
	"log"
	"sync"
)

var (
	ErrSessionActive = errors.New("ya hay una partida en curso")
	ErrNoSession     = errors.New("no hay ninguna partida en curso")
)

// gameSession es la única partida viva del proceso (asumimos un solo guild).
type gameSession struct {
	initiatorID      string
	guildID          string
	controlChannelID string
	controlMessageID string
	dead             map[string]struct{}
	meetingActive    bool
	historyID        int64 // 0 = sin historial
}

// SessionService es el dueño exclusivo de la sesión: toda lectura y mutación
// de su existencia, del flag de reunión y del set de muertos pasa por el
// mutex, incluida la llamada de mute/unmute que acompaña cada transición.
// Así el estado de voz siempre corresponde a la última transición aplicada.
type SessionService struct {
	mu  sync.Mutex
	cur *gameSession

	owners  map[string]struct{}
	voice   *MuteCoordinator
	dead    DeadChat
	history SessionStore // nil = historial deshabilitado
}

func NewSessionService(voice *MuteCoordinator, dead DeadChat, history SessionStore, ownerIDs []string) *SessionService {
	owners := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}
	return &SessionService{owners: owners, voice: voice, dead: dead, history: history}
}

// Start crea la sesión. Falla con ErrSessionActive si ya hay una.
func (s *SessionService) Start(ctx context.Context, guildID, initiatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil {
		return ErrSessionActive
	}

	sess := &gameSession{
		initiatorID: initiatorID,
		guildID:     guildID,
		dead:        map[string]struct{}{},
	}
	if s.history != nil {
		id, err := s.history.StartSession(ctx, guildID, initiatorID)
		if err != nil {
			log.Printf("[sesion] historial start: %v", err)
		} else {
			sess.historyID = id
		}
	}
	s.cur = sess
	log.Printf("[sesion] partida iniciada guild=%s initiator=%s", guildID, initiatorID)
	return nil
}

// BindControlMessage fija el mensaje de control. Se fija una sola vez por
// sesión; un segundo bind se ignora.
func (s *SessionService) BindControlMessage(ctx context.Context, channelID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ErrNoSession
	}
	if s.cur.controlMessageID != "" {
		return nil
	}
	s.cur.controlChannelID = channelID
	s.cur.controlMessageID = messageID
	if s.history != nil && s.cur.historyID != 0 {
		if err := s.history.BindControlMessage(ctx, s.cur.historyID, messageID); err != nil {
			log.Printf("[sesion] historial bind: %v", err)
		}
	}
	return nil
}

// End destruye la sesión. Antes de soltarla desmutea a todos los que
// muteamos y revoca el acceso al chat de muertos.
func (s *SessionService) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ErrNoSession
	}

	s.voice.UnmuteAll(s.cur.guildID)

	deadIDs := make([]string, 0, len(s.cur.dead))
	for id := range s.cur.dead {
		deadIDs = append(deadIDs, id)
		if s.dead != nil {
			if err := s.dead.Revoke(id); err != nil {
				log.Printf("[sesion] revocar chat de muertos %s: %v", id, err)
			}
		}
	}
	if s.history != nil && s.cur.historyID != 0 {
		if err := s.history.EndSession(ctx, s.cur.historyID, deadIDs); err != nil {
			log.Printf("[sesion] historial end: %v", err)
		}
	}

	log.Printf("[sesion] partida terminada guild=%s muertos=%d", s.cur.guildID, len(deadIDs))
	s.cur = nil
	return nil
}

func (s *SessionService) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}

// IsInControl: el initiator de la sesión o un owner del bot. Los owners
// pasan siempre, haya o no partida (autoriza ~dead/~stop como fallback).
func (s *SessionService) IsInControl(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[userID]; ok {
		return true
	}
	return s.cur != nil && s.cur.initiatorID == userID
}

// IsControlMessage dice si messageID es el mensaje de control de la sesión
// activa. Sin sesión (o sin bind) siempre false: reacciones sobre un mensaje
// de control viejo quedan descartadas acá.
func (s *SessionService) IsControlMessage(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil && s.cur.controlMessageID != "" && s.cur.controlMessageID == messageID
}

// MarkDead agrega al set de muertos y concede el chat de muertos.
// Idempotente; sin sesión es un no-op silencioso.
func (s *SessionService) MarkDead(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return
	}
	if _, ok := s.cur.dead[userID]; ok {
		return
	}
	s.cur.dead[userID] = struct{}{}
	if s.dead != nil {
		if err := s.dead.Grant(userID); err != nil {
			log.Printf("[sesion] conceder chat de muertos %s: %v", userID, err)
		}
	}
	log.Printf("[sesion] muerto: %s", userID)
}

func (s *SessionService) IsDead(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return false
	}
	_, ok := s.cur.dead[userID]
	return ok
}

// EmergencyMeeting activa la reunión y mutea a todos en voz. Señales
// duplicadas son inocuas (el mute es idempotente).
func (s *SessionService) EmergencyMeeting(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ErrNoSession
	}
	s.cur.meetingActive = true
	return s.voice.MuteAll(s.cur.guildID)
}

// WithdrawEmergency baja la reunión y desmutea. Tolera llegar sin reunión
// previa (add/remove pueden venir desordenados): queda el unmute de base.
func (s *SessionService) WithdrawEmergency(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ErrNoSession
	}
	s.cur.meetingActive = false
	s.voice.UnmuteAll(s.cur.guildID)
	return nil
}

// MutePlayers mutea a todos en voz sin tocar el flag de reunión (es el mute
// automático tras ~new). Revalida la existencia de la sesión: si terminó
// durante la espera del comando, no hay nada que mutear.
func (s *SessionService) MutePlayers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ErrNoSession
	}
	return s.voice.MuteAll(s.cur.guildID)
}

// MuteLateJoiner mutea a alguien que entra a voz con la reunión activa.
func (s *SessionService) MuteLateJoiner(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil || !s.cur.meetingActive {
		return
	}
	s.voice.MuteOne(s.cur.guildID, userID)
}

func (s *SessionService) MeetingActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil && s.cur.meetingActive
}
