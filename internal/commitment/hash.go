// Package commitment derives settlement content hashes and compares them with
// what the external ledger recorded.
package commitment

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// groupPrefix namespaces group identifiers so they never collide with
// settlement content hashes.
const groupPrefix = "group:"

// HashCanonical returns Keccak-256 of the canonical document bytes.
func HashCanonical(canonical []byte) common.Hash {
	return keccak256(canonical)
}

// HashString returns Keccak-256 of the UTF-8 bytes of s.
func HashString(s string) common.Hash {
	return keccak256([]byte(s))
}

// GroupIdentifierDigest maps an application group id to the bytes32 the
// ledger indexes settlements by: Keccak-256("group:" + groupID).
func GroupIdentifierDigest(groupID string) common.Hash {
	return keccak256([]byte(groupPrefix + groupID))
}

func keccak256(data []byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return common.BytesToHash(h.Sum(nil))
}
