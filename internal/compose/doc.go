// Package compose assembles the final post body from uploaded URLs,
// gallery captions, and source attributions, and derives the hashtag and
// content-warning tags for the signed event.
package compose
