package store

import (
	"context"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

// UpdateLinkPreview settles the loading preview with p.URL on record id.
// Unknown records, unknown URLs and already settled previews are ignored.
func (s *Store) UpdateLinkPreview(ctx context.Context, id string, p models.LinkPreview) error {
	_, changed := s.update(id, func(m *models.Message) bool {
		for i := range m.Links {
			if m.Links[i].URL != p.URL {
				continue
			}
			if !m.Links[i].Loading {
				return false
			}
			p.Loading = false
			m.Links[i] = p
			return true
		}
		return false
	})
	if changed {
		s.committed(ctx, Change{Op: OpUpdate, ID: id}, false)
	}
	return nil
}

func (s *Store) startEnrichment(id, url string) {
	if s.fetcher == nil {
		return
	}

	s.enrichMu.Lock()
	if s.closed {
		s.enrichMu.Unlock()
		return
	}
	s.enrich.Add(1)
	s.enrichMu.Unlock()

	go func() {
		defer s.enrich.Done()

		ctx := s.bgCtx
		md, err := s.fetcher.Fetch(ctx, url)
		if ctx.Err() != nil {
			// closing; the preview stays loading and is retried on next start
			return
		}

		p := models.LinkPreview{URL: url}
		if err != nil {
			s.log.Debug(ctx, "link preview failed", "id", id, "url", url, "error", err)
			p.Error = true
		} else {
			p.Title = md.Title
			p.Description = md.Description
			p.Image = md.Image
		}
		_ = s.UpdateLinkPreview(ctx, id, p)
	}()
}
