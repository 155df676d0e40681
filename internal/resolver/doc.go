// Package resolver turns input URLs and local paths into galleries of
// local media files by trying acquisition strategies in order: video
// download, gallery download with set/id heuristics, share-link redirect
// resolution, and an open-graph image fallback.
package resolver
