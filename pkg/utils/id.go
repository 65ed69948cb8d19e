package utils

import (
	"crypto/rand"
	"math/big"
)

// Room codes stay short so players can read them out loud. Ambiguous
// characters (0/O, 1/I) are left out of the alphabet.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenRoomCode generates a random 4-character room code. Uniqueness is the
// caller's problem; the store retries on collision.
func GenRoomCode() string {
	b := make([]byte, 4)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return ""
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b)
}
