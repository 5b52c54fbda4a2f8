package discord

// Los dos símbolos con significado sobre el mensaje de control.
// Cualquier otra reacción se ignora.
const (
	EmerEmoji = "\U0001F534" // 🔴 llama / retira la reunión de emergencia
	DeadEmoji = "\U0001F480" // 💀 acceso self-service al chat de muertos
)
