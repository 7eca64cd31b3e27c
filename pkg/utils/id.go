package utils

import (
	"crypto/rand"
	"log"
	"math/big"

	"github.com/google/uuid"
)

// GenerateID generates a new UUID v4 string
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		log.Printf("Failed to generate UUID: %v", err)
		return ""
	}
	return id.String()
}

// IsValidUUID checks if the string is a valid UUID
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}

// accessPasswordAlphabet avoids look-alike characters (0/O, 1/l) since
// profile passwords are read aloud and typed by humans.
const accessPasswordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateAccessPassword returns a random human-typable password of the
// given length for published tool profiles.
func GenerateAccessPassword(length int) string {
	if length <= 0 {
		length = 8
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(accessPasswordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			log.Printf("Failed to generate access password: %v", err)
			return ""
		}
		out[i] = accessPasswordAlphabet[n.Int64()]
	}
	return string(out)
}
