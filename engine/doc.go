// Package engine is the synchronization engine. It runs one Driver per
// account through a bounded pool; each driver logs in, enumerates the
// applications its packages grant, and starts one Task per depot manifest
// that is neither captured yet nor in flight elsewhere. Tasks fetch the
// manifest, then commit and tag it in the artifact store while holding the
// application's lock.
//
// Shared state (lock table, dedup index, state maps, artifact store) is
// passed in through Deps and never reached through globals.
package engine
