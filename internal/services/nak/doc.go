// Package nak wraps the nak command-line nostr tool for event signing,
// relay broadcast, nevent encoding, and blossom uploads.
package nak
