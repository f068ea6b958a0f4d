package auth

import (
	"encoding/json"
	"fmt"
)

// Capabilities recognised inside a role access descriptor.
const (
	CapabilityAll   = "all"
	CapabilityApply = "apply"
	CapabilityView  = "view"
)

// AccessDescriptor is the capability blob attached to a role.
type AccessDescriptor map[string]bool

// Default descriptors attached by role provisioning.
var (
	AdminAccess     = AccessDescriptor{CapabilityAll: true}
	CandidateAccess = AccessDescriptor{CapabilityApply: true, CapabilityView: true}
)

// Allows reports whether the descriptor grants capability.
func (d AccessDescriptor) Allows(capability string) bool {
	if d[CapabilityAll] {
		return true
	}
	return d[capability]
}

// Encode renders the descriptor in its stored JSON form.
func (d AccessDescriptor) Encode() string {
	if len(d) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(map[string]bool(d))
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// DecodeAccess parses a stored descriptor. Empty input grants nothing;
// malformed input is an error.
func DecodeAccess(raw string) (AccessDescriptor, error) {
	out := AccessDescriptor{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return AccessDescriptor{}, fmt.Errorf("decode access descriptor: %w", err)
	}
	return out, nil
}
