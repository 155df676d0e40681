// Package pipeline orchestrates a full run: acquire media, convert
// incompatible video, check the dedup ledger, upload through the sink
// chain, compose the post, publish it, and commit the ledger last.
package pipeline
