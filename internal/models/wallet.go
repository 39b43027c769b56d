package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidAddress is returned when a wallet address is not "0x" followed by
// exactly 40 hex characters.
var ErrInvalidAddress = errors.New("invalid address: use 0x followed by 40 hex characters")

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// AddressError identifies the member and value that failed validation.
type AddressError struct {
	MemberID string
	Address  string
}

func (e *AddressError) Error() string {
	if e.MemberID == "" {
		return fmt.Sprintf("%v: %q", ErrInvalidAddress, e.Address)
	}
	return fmt.Sprintf("%v: member %s: %q", ErrInvalidAddress, e.MemberID, e.Address)
}

func (e *AddressError) Unwrap() error { return ErrInvalidAddress }

// IsValidAddress reports whether s, ignoring surrounding whitespace, is a
// well-formed wallet address.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(strings.TrimSpace(s))
}

// NormalizeAddress returns the canonical lowercase form of an address.
// It does not validate.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateAddress checks a wallet address for the given member and returns its
// normalized form. An empty address is valid and clears the wallet.
func ValidateAddress(memberID, address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "", nil
	}
	if !addressPattern.MatchString(trimmed) {
		return "", &AddressError{MemberID: memberID, Address: address}
	}
	return NormalizeAddress(trimmed), nil
}
