package server

import (
	"crypto/rand"
	"encoding/hex"
)

// sessionIDBytes is chosen so hex.EncodeToString produces exactly a
// 16-hex-character session id.
const sessionIDBytes = 8

// NewSessionID generates a 16-hex-character session id from
// crypto/rand bytes, hex-encoded. A session id is minted once per
// session, not on every message, so there's no need for the
// sync.Pool/fallback-chain machinery a hotter id-generation path would
// want.
func NewSessionID() string {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		panic("server: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
