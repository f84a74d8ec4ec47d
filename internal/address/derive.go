// Package address derives the deterministic ledger account addresses of every
// record the relief program stores.
//
// An address key is a kind plus an ordered list of seeds. The kind contributes a
// fixed ASCII tag as the first seed, so two kinds never share an address even if
// their remaining seeds are identical. Encoding must match the program bit for bit:
// strings are raw UTF-8, public keys are their 32 raw bytes, and timestamps are
// 8-byte little-endian signed integers.
package address

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
)

// Limits imposed by program address derivation.
const (
	MaxSeedLength = 32
	MaxSeeds      = 16
)

// ErrInvalidSeed is the sentinel wrapped by every InvalidSeedError.
var ErrInvalidSeed = errors.New("invalid seed")

// ErrUnknownKind is returned for a kind with no registered tag.
var ErrUnknownKind = errors.New("unknown address kind")

// InvalidSeedError reports a seed that cannot be used for derivation.
type InvalidSeedError struct {
	Kind   Kind
	Reason string
	Index  int
	Length int
}

func (e *InvalidSeedError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid seeds for %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid seed %d for %s: %s (%d bytes)", e.Index, e.Kind, e.Reason, e.Length)
}

func (e *InvalidSeedError) Unwrap() error {
	return ErrInvalidSeed
}

// Kind names a class of ledger record.
type Kind string

// Record kinds.
const (
	KindPlatformConfig     Kind = "platform-config"
	KindDisaster           Kind = "disaster"
	KindNGO                Kind = "ngo"
	KindFieldWorker        Kind = "field-worker"
	KindBeneficiary        Kind = "beneficiary"
	KindFundPool           Kind = "fund-pool"
	KindPoolTokenAccount   Kind = "pool-token-account"
	KindDistribution       Kind = "distribution"
	KindDonationRecord     Kind = "donation-record"
	KindAdminAction        Kind = "admin-action"
	KindActivityLog        Kind = "activity-log"
	KindPhoneRegistry      Kind = "phone-registry"
	KindNationalIDRegistry Kind = "national-id-registry"
	KindPoolRegistration   Kind = "pool-registration"
	KindPoolActivityLog    Kind = "pool-activity-log"
)

type layout struct {
	tag   string
	seeds []SeedType
}

var layouts = map[Kind]layout{
	KindPlatformConfig:     {tag: "config"},
	KindDisaster:           {tag: "disaster", seeds: []SeedType{SeedString}},
	KindNGO:                {tag: "ngo", seeds: []SeedType{SeedPublicKey}},
	KindFieldWorker:        {tag: "field-worker", seeds: []SeedType{SeedPublicKey}},
	KindBeneficiary:        {tag: "beneficiary", seeds: []SeedType{SeedPublicKey, SeedString}},
	KindFundPool:           {tag: "pool", seeds: []SeedType{SeedString, SeedString}},
	KindPoolTokenAccount:   {tag: "pool-token", seeds: []SeedType{SeedString, SeedString}},
	KindDistribution:       {tag: "distribution", seeds: []SeedType{SeedPublicKey, SeedPublicKey}},
	KindDonationRecord:     {tag: "donation", seeds: []SeedType{SeedPublicKey, SeedPublicKey, SeedTimestamp}},
	KindAdminAction:        {tag: "admin-action", seeds: []SeedType{SeedPublicKey, SeedTimestamp}},
	KindActivityLog:        {tag: "activity", seeds: []SeedType{SeedPublicKey, SeedTimestamp}},
	KindPhoneRegistry:      {tag: "phone", seeds: []SeedType{SeedString, SeedString}},
	KindNationalIDRegistry: {tag: "national-id", seeds: []SeedType{SeedString, SeedString}},
	KindPoolRegistration:   {tag: "pool-registration", seeds: []SeedType{SeedPublicKey, SeedPublicKey}},
	KindPoolActivityLog:    {tag: "pool-activity", seeds: []SeedType{SeedPublicKey, SeedTimestamp}},
}

// Kinds returns every known kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(layouts))
	for k := range layouts {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := layouts[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Layout returns the seed types a kind expects after its tag.
func Layout(k Kind) ([]SeedType, error) {
	l, ok := layouts[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	out := make([]SeedType, len(l.seeds))
	copy(out, l.seeds)
	return out, nil
}

// Tag returns the ASCII prefix seed of a kind.
func Tag(k Kind) (string, error) {
	l, ok := layouts[k]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	return l.tag, nil
}

// ParseSeeds converts textual arguments into seeds following the kind's layout.
func ParseSeeds(k Kind, args []string) ([]Seed, error) {
	types, err := Layout(k)
	if err != nil {
		return nil, err
	}
	if len(args) != len(types) {
		return nil, &InvalidSeedError{
			Kind:   k,
			Index:  -1,
			Reason: fmt.Sprintf("expected %d seeds %v, got %d", len(types), types, len(args)),
		}
	}
	seeds := make([]Seed, len(args))
	for i, arg := range args {
		s, err := ParseSeed(types[i], arg)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
		seeds[i] = s
	}
	return seeds, nil
}

// Address is a derived account location and the bump that moved it off the curve.
type Address struct {
	Key  solana.PublicKey
	Bump uint8
}

func (a Address) String() string {
	return a.Key.String()
}

// Derive computes the address of a record of the given kind. It is pure: the same
// program, kind and seeds always produce the same address.
func Derive(programID solana.PublicKey, kind Kind, seeds ...Seed) (Address, error) {
	raw, err := encode(kind, seeds)
	if err != nil {
		return Address{}, err
	}
	key, bump, err := solana.FindProgramAddress(raw, programID)
	if err != nil {
		return Address{}, fmt.Errorf("derive %s address: %w", kind, err)
	}
	return Address{Key: key, Bump: bump}, nil
}

// encode prepends the kind tag and validates seed sizes.
func encode(kind Kind, seeds []Seed) ([][]byte, error) {
	l, ok := layouts[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	// One slot is reserved for the bump.
	if len(seeds)+1 > MaxSeeds-1 {
		return nil, &InvalidSeedError{
			Kind:   kind,
			Index:  -1,
			Reason: fmt.Sprintf("too many seeds (%d)", len(seeds)),
		}
	}
	raw := make([][]byte, 0, len(seeds)+1)
	raw = append(raw, []byte(l.tag))
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return nil, &InvalidSeedError{
				Kind:   kind,
				Index:  i,
				Length: len(s),
				Reason: fmt.Sprintf("exceeds %d bytes", MaxSeedLength),
			}
		}
		raw = append(raw, []byte(s))
	}
	return raw, nil
}
