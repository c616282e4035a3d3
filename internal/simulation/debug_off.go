//go:build !simdebug

package simulation

const debugChecks = false
