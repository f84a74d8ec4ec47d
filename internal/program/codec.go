// Package program encodes instructions for, and decodes accounts owned by, the
// relief ledger program. Instruction data and account bodies use Borsh with
// the usual 8-byte Anchor discriminator prefix.
package program

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
)

// DiscriminatorLength is the size of the instruction and account prefixes.
const DiscriminatorLength = 8

// Decoding errors.
var (
	ErrShortAccount     = errors.New("account data too short")
	ErrWrongAccountType = errors.New("account discriminator mismatch")
	ErrUnknownStatus    = errors.New("unknown status value")
)

// Discriminator is the 8-byte prefix identifying an instruction or account type.
type Discriminator [DiscriminatorLength]byte

func discriminator(namespace, name string) Discriminator {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d Discriminator
	copy(d[:], sum[:DiscriminatorLength])
	return d
}

// InstructionDiscriminator returns the prefix for the named instruction.
func InstructionDiscriminator(name string) Discriminator {
	return discriminator("global", name)
}

// AccountDiscriminator returns the prefix for the named account type.
func AccountDiscriminator(name string) Discriminator {
	return discriminator("account", name)
}

func encodeInstruction(name string, args any) ([]byte, error) {
	d := InstructionDiscriminator(name)
	buf := bytes.NewBuffer(d[:])
	if args != nil {
		if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
			return nil, fmt.Errorf("failed to encode %s args: %w", name, err)
		}
	}
	return buf.Bytes(), nil
}

func decodeAccount(name string, data []byte, into any) error {
	if len(data) < DiscriminatorLength {
		return fmt.Errorf("%w: %s has %d bytes", ErrShortAccount, name, len(data))
	}
	want := AccountDiscriminator(name)
	if !bytes.Equal(data[:DiscriminatorLength], want[:]) {
		return fmt.Errorf("%w: expected %s", ErrWrongAccountType, name)
	}
	if err := bin.NewBorshDecoder(data[DiscriminatorLength:]).Decode(into); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func encodeAccount(name string, v any) ([]byte, error) {
	d := AccountDiscriminator(name)
	buf := bytes.NewBuffer(d[:])
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func unixTime(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}

func optionalTime(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := unixTime(*v)
	return &t
}

func optionalUnix(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.Unix()
	return &v
}
