// Package domain provides the shared type definitions of manifestsync:
// application, depot and manifest identifiers, the owned-package and depot
// listings returned by an account session, fetched artifacts, account and
// task states, and the events published when the store changes.
//
// The package has no dependencies beyond the standard library and holds no
// business logic apart from identifier formatting and parsing.
//
// # Identifiers
//
// AppID and DepotID are numeric and render as decimal strings, which is also
// how they appear as branch names and JSON object keys. A ManifestGID is an
// opaque string. The pair (DepotID, ManifestGID) names a capture; its tag is
// "<depot>_<gid>":
//
//	tag := domain.TagName(731, "7617088375292372759")
//	// "731_7617088375292372759"
package domain
