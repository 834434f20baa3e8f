// Package cli implements roomctl, an interactive operator console for a
// roomkeeper server: list and create rooms, request join credentials and
// check server health.
//
// Passwords are read from the terminal without echo and wiped after use.
package cli
