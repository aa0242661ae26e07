// Package state holds the durable bookkeeping of a run: the last captured
// manifest per depot (appinfo.json) and the per-account records
// (userinfo.json). Both maps live in memory behind one mutex each and are
// written to the state directory atomically, periodically by a Flusher and
// once more when a run stops.
package state
