// Package media defines the normalized media item model shared across the
// pipeline and the MIME sniffing rules for local inputs.
package media
