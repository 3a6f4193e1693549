package onion

import (
	"crypto/ed25519"
	"encoding/base32"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address format constants from the Tor rendezvous specification.
const (
	// V3AddressLength is the length of a v3 address without the
	// ".onion" suffix: 56 base32 characters encoding 35 bytes.
	V3AddressLength = 56

	// V3Version is the version byte embedded in every v3 address.
	V3Version = 0x03

	// Suffix is the DNS-like suffix all onion addresses carry.
	Suffix = ".onion"
)

// ErrInvalidAddress is returned when an address fails format or
// checksum validation.
var ErrInvalidAddress = errors.New("invalid v3 onion address")

// v3Pattern matches a bare v3 address: 56 base32 characters. Base32
// uses a-z and the digits 2-7.
var v3Pattern = regexp.MustCompile(`^[a-z2-7]{56}$`)

// checksumPrefix seeds the v3 checksum hash, per rend-spec-v3.
var checksumPrefix = []byte(".onion checksum")

// FromPublicKey derives the v3 onion address for an ed25519 public
// key, without the ".onion" suffix. The result is what the daemon
// reports as ServiceID for a service using that key.
func FromPublicKey(pub ed25519.PublicKey) string {
	raw := make([]byte, 0, ed25519.PublicKeySize+3)
	raw = append(raw, pub...)
	raw = append(raw, checksum(pub)...)
	raw = append(raw, V3Version)
	return strings.ToLower(base32.StdEncoding.EncodeToString(raw))
}

// Validate checks that address is a well-formed v3 onion address with
// a correct checksum. The address may carry the ".onion" suffix and
// may use any letter case.
func Validate(address string) error {
	normalized := Normalize(address)
	if !v3Pattern.MatchString(normalized) {
		return ErrInvalidAddress
	}
	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(normalized))
	if err != nil {
		return ErrInvalidAddress
	}
	// 32 bytes of key, 2 of checksum, 1 version byte.
	if len(decoded) != ed25519.PublicKeySize+3 {
		return ErrInvalidAddress
	}
	pub := decoded[:ed25519.PublicKeySize]
	sum := decoded[ed25519.PublicKeySize : ed25519.PublicKeySize+2]
	version := decoded[ed25519.PublicKeySize+2]
	if version != V3Version {
		return ErrInvalidAddress
	}
	want := checksum(pub)
	if sum[0] != want[0] || sum[1] != want[1] {
		return ErrInvalidAddress
	}
	return nil
}

// IsValid reports whether address passes Validate.
func IsValid(address string) bool {
	return Validate(address) == nil
}

// Normalize lowercases address and strips a trailing ".onion" suffix,
// yielding the bare service ID form the control protocol uses.
func Normalize(address string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(address)), Suffix)
}

// checksum returns the two checksum bytes for a v3 public key:
// SHA3-256(".onion checksum" || pubkey || version), truncated.
func checksum(pub ed25519.PublicKey) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pub)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pub...)
	data = append(data, V3Version)
	sum := sha3.Sum256(data)
	return sum[:2]
}
