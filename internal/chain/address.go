package chain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// ErrInvalidAddress is returned for input that is not a 20-byte hex address.
var ErrInvalidAddress = errors.New("invalid address")

// ValidateAddress checks that addr is a 0x-prefixed 40 hex char address.
func ValidateAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return fmt.Errorf("%w: %q must start with 0x", ErrInvalidAddress, addr)
	}
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return nil
}

// ChecksumAddress returns the EIP-55 mixed-case form of addr. Input that is
// not a valid hex address is returned unchanged.
func ChecksumAddress(addr string) string {
	clean := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(clean) != 40 {
		return addr
	}
	if _, err := hex.DecodeString(clean); err != nil {
		return addr
	}
	lower := strings.ToLower(clean)

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	var sb strings.Builder
	sb.WriteString("0x")
	for i, c := range lower {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			sb.WriteByte(byte(c - 32))
			continue
		}
		sb.WriteByte(byte(c))
	}
	return sb.String()
}
