// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// IDLength is the byte length of a changeset id hash
const IDLength = 32

// IDHexLength is the length of a fully qualified hex changeset id
const IDHexLength = IDLength * 2

// ChangesetID is the opaque content-addressed identifier of one changeset,
// globally unique within a repository.
type ChangesetID [IDLength]byte

// IsZero returns whether the id is the all-zero sentinel
func (id ChangesetID) IsZero() bool {
	var empty ChangesetID
	return bytes.Equal(id[:], empty[:])
}

// String returns the full lower-case hex representation
func (id ChangesetID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler
func (id ChangesetID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *ChangesetID) UnmarshalText(text []byte) error {
	parsed, err := NewIDFromString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MustID always creates a new ChangesetID from a 32 byte slice with no validation of input.
func MustID(b []byte) ChangesetID {
	var id ChangesetID
	copy(id[:], b)
	return id
}

// NewIDFromString creates a new ChangesetID from a hex string of length 64
func NewIDFromString(s string) (ChangesetID, error) {
	var id ChangesetID
	if len(s) != IDHexLength {
		return id, fmt.Errorf("length must be %d: %s", IDHexLength, s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	return MustID(b), nil
}

// MustIDFromString always creates a new ChangesetID from a hex string with no validation of input.
func MustIDFromString(s string) ChangesetID {
	b, _ := hex.DecodeString(s)
	return MustID(b)
}

// IsValidIDHexPrefix reports whether the string is usable as a hex id
// prefix for short-hash resolution.
func IsValidIDHexPrefix(prefix string) bool {
	if len(prefix) == 0 || len(prefix) > IDHexLength {
		return false
	}
	for _, c := range prefix {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
