package address

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Seed is one byte-encoded component of an address key.
type Seed []byte

// String encodes s as raw UTF-8 bytes without padding.
func String(s string) Seed {
	return Seed(s)
}

// PublicKey encodes a key as its raw 32-byte representation.
func PublicKey(pk solana.PublicKey) Seed {
	b := pk.Bytes()
	return Seed(b)
}

// Timestamp encodes a Unix timestamp as 8 little-endian bytes, signed.
func Timestamp(unix int64) Seed {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(unix))
	return Seed(b)
}

// Time is Timestamp for a time.Time at second precision.
func Time(t time.Time) Seed {
	return Timestamp(t.Unix())
}

// Uint64 encodes an unsigned integer as 8 little-endian bytes.
func Uint64(v uint64) Seed {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return Seed(b)
}

// SeedType describes how a textual argument is turned into a Seed.
type SeedType string

// Seed type constants.
const (
	SeedString    SeedType = "string"
	SeedPublicKey SeedType = "pubkey"
	SeedTimestamp SeedType = "timestamp"
	SeedUint64    SeedType = "u64"
)

// ParseSeed converts a command-line argument into a Seed of the given type.
// Timestamps accept either Unix seconds or RFC 3339.
func ParseSeed(t SeedType, arg string) (Seed, error) {
	switch t {
	case SeedString:
		return String(arg), nil
	case SeedPublicKey:
		pk, err := solana.PublicKeyFromBase58(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid public key %q: %w", arg, err)
		}
		return PublicKey(pk), nil
	case SeedTimestamp:
		if unix, err := strconv.ParseInt(arg, 10, 64); err == nil {
			return Timestamp(unix), nil
		}
		ts, err := time.Parse(time.RFC3339, arg)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: want unix seconds or RFC 3339", arg)
		}
		return Time(ts), nil
	case SeedUint64:
		v, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid u64 %q: %w", arg, err)
		}
		return Uint64(v), nil
	}
	return nil, fmt.Errorf("unknown seed type %q", t)
}
