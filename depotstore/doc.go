// Package depotstore is the versioned artifact store: one git repository in
// which every application owns a branch (its namespace) named by the decimal
// app id, forked from the baseline branch "app". Each captured depot manifest
// is one commit on that branch plus an immutable "<depot>_<gid>" tag.
//
// All repository and staging operations of a Store are serialized by one
// mutex; callers additionally hold the application's lock from package
// applock while mutating a namespace.
package depotstore
