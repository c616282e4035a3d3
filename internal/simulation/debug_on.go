//go:build simdebug

package simulation

// debugChecks enables runtime assertions on simulated values.
const debugChecks = true
