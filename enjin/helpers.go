package enjin

import (
	"math/rand"
	"regexp"
	"strings"
)

var (
	addressChecksummed = regexp.MustCompile(`^(0x){1}[0-9a-fA-F]{40}$`)
	addressUpper       = regexp.MustCompile(`^(0x)?[0-9A-F]{40}$`)
)

// ValidateAddress reports whether the given string is a plausible
// Ethereum address: 0x followed by 40 hex digits, or 40 uppercase hex
// digits with the prefix optional.
func ValidateAddress(address string) bool {
	return addressChecksummed.MatchString(address) || addressUpper.MatchString(address)
}

// passcode character classes; one is picked at random per character.
var passcodeLookup = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"1234567890",
}

// GeneratePassCode returns a random pass code of the given length,
// mixing lower case, upper case and digits. Lengths below one produce
// the default of twelve characters.
func GeneratePassCode(length int) string {
	if length < 1 {
		length = 12
	}

	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		class := passcodeLookup[rand.Intn(len(passcodeLookup))]
		sb.WriteByte(class[rand.Intn(len(class))])
	}
	return sb.String()
}

// IntToBoolString converts 1 to "True" and anything else to "False".
func IntToBoolString(num int) string {
	if num == 1 {
		return "True"
	}
	return "False"
}
