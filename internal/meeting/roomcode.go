package meeting

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

const (
	roomCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	roomCodeGroups   = 3
	roomCodeGroupLen = 3
)

var roomCodePattern = regexp.MustCompile(`^[a-z0-9]{3}-[a-z0-9]{3}-[a-z0-9]{3}$`)

// GenerateRoomCode returns a random code shaped like "k3j-a91-xyz". Uniqueness is
// the caller's concern.
func GenerateRoomCode() string {
	var b strings.Builder
	b.Grow(roomCodeGroups*roomCodeGroupLen + roomCodeGroups - 1)
	for g := 0; g < roomCodeGroups; g++ {
		if g > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < roomCodeGroupLen; i++ {
			b.WriteByte(roomCodeAlphabet[rand.IntN(len(roomCodeAlphabet))])
		}
	}
	return b.String()
}

// ValidRoomCode reports whether code has the room code shape
func ValidRoomCode(code string) bool {
	return roomCodePattern.MatchString(code)
}
