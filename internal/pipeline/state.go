package pipeline

import (
	"nostrcast/internal/media"
	"nostrcast/internal/upload"
)

// State accumulates the parallel per-item sequences a run builds up while
// resolving inputs. Threading it explicitly keeps gallery numbering and the
// caption/source bookkeeping out of ambient variables.
type State struct {
	Items []media.Item
	// Tokens to commit to the ledger after the run succeeds.
	Tokens []string

	nextGalleryID int
}

// NextGalleryID hands out gallery ids in encounter order, starting at 0.
func (s *State) NextGalleryID() int {
	id := s.nextGalleryID
	s.nextGalleryID++
	return id
}

// AddItems appends resolved items to the run.
func (s *State) AddItems(items []media.Item) {
	s.Items = append(s.Items, items...)
}

// AddToken records a ledger token for the final commit.
func (s *State) AddToken(token string) {
	if token == "" {
		return
	}
	s.Tokens = append(s.Tokens, token)
}

// Files lists the local files in item order.
func (s *State) Files() []string {
	files := make([]string, len(s.Items))
	for i, item := range s.Items {
		files[i] = item.LocalFile
	}
	return files
}

// ComposeSequences derives the parallel sequences the composer needs from
// the uploaded results. One source entry is emitted per gallery, carried on
// its last item like the caption.
func (s *State) ComposeSequences(uploaded []upload.UploadedFile) (urls, captions []string, galleryIDs []int, sources []string) {
	urls = make([]string, len(uploaded))
	captions = make([]string, len(s.Items))
	galleryIDs = make([]int, len(s.Items))
	for i, result := range uploaded {
		urls[i] = result.URL
	}
	for i, item := range s.Items {
		captions[i] = item.Caption
		galleryIDs[i] = item.GalleryID
	}
	for i, item := range s.Items {
		last := i == len(s.Items)-1 || s.Items[i+1].GalleryID != item.GalleryID
		if last && item.SourceURL != "" {
			sources = append(sources, item.SourceURL)
		}
	}
	return urls, captions, galleryIDs, sources
}
