package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// AppID identifies an application. Each application owns one namespace
// (branch) in the artifact store named by its decimal form.
type AppID uint32

// String returns the decimal form used for branch names.
func (a AppID) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// ParseAppID parses a decimal application id.
func ParseAppID(s string) (AppID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid app id %q: %w", s, err)
	}
	return AppID(v), nil
}

// DepotID identifies a depot. A depot belongs to exactly one application.
type DepotID uint32

// String returns the decimal form.
func (d DepotID) String() string {
	return strconv.FormatUint(uint64(d), 10)
}

// ParseDepotID parses a decimal depot id.
func ParseDepotID(s string) (DepotID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid depot id %q: %w", s, err)
	}
	return DepotID(v), nil
}

// ManifestGID is the opaque identifier of one manifest version of a depot.
type ManifestGID string

// TagName returns the immutable tag recording that depot was captured at gid.
func TagName(depot DepotID, gid ManifestGID) string {
	return depot.String() + "_" + string(gid)
}

// ParseTagName splits a "<depot>_<gid>" tag. ok is false for tags that do
// not follow that shape.
func ParseTagName(tag string) (depot DepotID, gid ManifestGID, ok bool) {
	d, g, found := strings.Cut(tag, "_")
	if !found || g == "" {
		return 0, "", false
	}
	id, err := ParseDepotID(d)
	if err != nil {
		return 0, "", false
	}
	return id, ManifestGID(g), true
}

// ManifestFileName is the file a captured manifest is stored under.
func ManifestFileName(depot DepotID, gid ManifestGID) string {
	return TagName(depot, gid) + ".manifest"
}

// CommitMessage is the message of the commit capturing depot at gid.
func CommitMessage(depot DepotID, gid ManifestGID) string {
	return "Update depot: " + TagName(depot, gid)
}

// Package is an owned license package as reported by an account session.
type Package struct {
	// ID is the package id.
	ID uint32 `json:"id"`

	// BillingType is the upstream billing type code.
	BillingType BillingType `json:"billing_type"`

	// AppIDs lists the applications granted by the package.
	AppIDs []AppID `json:"app_ids"`

	// DepotIDs lists the depots granted by the package.
	DepotIDs []DepotID `json:"depot_ids"`
}

// AppInfo describes an application and its depots.
type AppInfo struct {
	// ID is the application id.
	ID AppID `json:"id"`

	// Type is the application type, e.g. "game" or "tool".
	Type AppType `json:"type"`

	// Depots lists the depots of the application.
	Depots []DepotInfo `json:"depots"`
}

// DepotInfo describes one depot of an application.
type DepotInfo struct {
	// ID is the depot id.
	ID DepotID `json:"id"`

	// PublicManifest is the manifest of the public branch; empty when the
	// depot has no public manifest.
	PublicManifest ManifestGID `json:"public_manifest,omitempty"`

	// Licensed reports whether the account's entitlements cover the depot or
	// its owning application.
	Licensed bool `json:"licensed"`
}

// Artifact is the content fetched for one depot manifest.
type Artifact struct {
	// Manifest is the raw manifest bytes.
	Manifest []byte

	// DecryptionKey is the depot's decryption key; may be empty.
	DecryptionKey []byte
}
