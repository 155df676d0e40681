// Package publish signs composed posts and broadcasts them to relays via
// the signing collaborator.
package publish
