package turn

import (
	"fmt"
	"strconv"
	"strings"
)

// Object keys under one session:
//
//	sessions/{sessionID}/turns/000001.wav        turn audio
//	sessions/{sessionID}/turns/000001.json       turn manifest
//	sessions/{sessionID}/turns/000001.reply.mp3  assistant reply audio
//	sessions/{sessionID}/session.json            session manifest
//
// Turn numbers are zero-padded to six digits so a lexicographic listing of
// keys is also the numeric turn order.
const (
	keyRoot      = "sessions"
	turnPadding  = "%06d"
	manifestName = "session.json"
)

// RootPrefix is the listing prefix that covers every session.
const RootPrefix = keyRoot + "/"

// AudioKey returns the object key for a turn's captured audio.
func AudioKey(sessionID string, turn int) string {
	return fmt.Sprintf("%s/%s/turns/"+turnPadding+".wav", keyRoot, sessionID, turn)
}

// ManifestKey returns the object key for a turn's manifest.
func ManifestKey(sessionID string, turn int) string {
	return fmt.Sprintf("%s/%s/turns/"+turnPadding+".json", keyRoot, sessionID, turn)
}

// ReplyAudioKey returns the object key for a turn's synthesized reply.
func ReplyAudioKey(sessionID string, turn int) string {
	return fmt.Sprintf("%s/%s/turns/"+turnPadding+".reply.mp3", keyRoot, sessionID, turn)
}

// SessionManifestKey returns the object key for the aggregated session
// manifest.
func SessionManifestKey(sessionID string) string {
	return fmt.Sprintf("%s/%s/%s", keyRoot, sessionID, manifestName)
}

// TurnsPrefix returns the listing prefix covering one session's turns.
func TurnsPrefix(sessionID string) string {
	return fmt.Sprintf("%s/%s/turns/", keyRoot, sessionID)
}

// SessionPrefix returns the listing prefix covering everything one session
// stored.
func SessionPrefix(sessionID string) string {
	return fmt.Sprintf("%s/%s/", keyRoot, sessionID)
}

// IsTurnManifestKey reports whether a key names a turn manifest rather than
// audio or the session manifest.
func IsTurnManifestKey(key string) bool {
	return strings.Contains(key, "/turns/") && strings.HasSuffix(key, ".json")
}

// IsSessionManifestKey reports whether a key names a session manifest.
func IsSessionManifestKey(key string) bool {
	return strings.HasSuffix(key, "/"+manifestName)
}

// TurnNumberFromKey parses the turn number out of a turn-scoped key, or
// (0, false) when the key does not follow the turn layout.
func TurnNumberFromKey(key string) (int, bool) {
	i := strings.LastIndex(key, "/turns/")
	if i < 0 {
		return 0, false
	}
	rest := key[i+len("/turns/"):]
	j := strings.IndexByte(rest, '.')
	if j <= 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:j])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// SessionIDFromKey extracts the session ID segment from any session-scoped
// key, or "" when the key is not under the session root.
func SessionIDFromKey(key string) string {
	if !strings.HasPrefix(key, RootPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(key, RootPrefix)
	i := strings.IndexByte(rest, '/')
	if i <= 0 {
		return ""
	}
	return rest[:i]
}
