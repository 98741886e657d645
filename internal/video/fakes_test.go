package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var errBoom = errors.New("boom")

type fakeStore struct {
	mu       sync.Mutex
	videos   []Video
	listErr  error
	getErr   error
	writeErr error
	inserted []NewVideo
	deleted  []ID
	nextID   int
}

func (s *fakeStore) ListVideos(_ context.Context) ([]Video, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Video, len(s.videos))
	copy(out, s.videos)
	return out, nil
}

func (s *fakeStore) ListVideosByOwner(_ context.Context, ownerID string) ([]Video, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Video, 0)
	for _, v := range s.videos {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeStore) find(id ID) (int, bool) {
	for i, v := range s.videos {
		if v.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *fakeStore) GetVideo(_ context.Context, id ID) (Video, error) {
	if s.getErr != nil {
		return Video{}, s.getErr
	}
	i, ok := s.find(id)
	if !ok {
		return Video{}, ErrVideoNotFound
	}
	return s.videos[i], nil
}

func (s *fakeStore) InsertVideo(_ context.Context, nv NewVideo) (Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return Video{}, s.writeErr
	}
	s.nextID++
	s.inserted = append(s.inserted, nv)
	v := Video{
		ID:           ID(fmt.Sprintf("vid-%d", s.nextID)),
		Title:        nv.Title,
		Description:  nv.Description,
		VideoURL:     nv.VideoURL,
		ThumbnailURL: nv.ThumbnailURL,
		Duration:     nv.Duration,
		OwnerID:      nv.OwnerID,
		CreatedAt:    time.Now(),
	}
	s.videos = append([]Video{v}, s.videos...)
	return v, nil
}

func (s *fakeStore) UpdateVideo(_ context.Context, id ID, u VideoUpdate) (Video, error) {
	if s.writeErr != nil {
		return Video{}, s.writeErr
	}
	i, ok := s.find(id)
	if !ok {
		return Video{}, ErrVideoNotFound
	}
	if u.Title != nil {
		s.videos[i].Title = *u.Title
	}
	if u.Description != nil {
		s.videos[i].Description = u.Description
	}
	return s.videos[i], nil
}

func (s *fakeStore) DeleteVideo(_ context.Context, id ID) (Video, error) {
	if s.writeErr != nil {
		return Video{}, s.writeErr
	}
	i, ok := s.find(id)
	if !ok {
		return Video{}, ErrVideoNotFound
	}
	v := s.videos[i]
	s.videos = append(s.videos[:i], s.videos[i+1:]...)
	s.deleted = append(s.deleted, id)
	return v, nil
}

func (s *fakeStore) IncrementViews(_ context.Context, id ID) (Video, error) {
	if s.writeErr != nil {
		return Video{}, s.writeErr
	}
	i, ok := s.find(id)
	if !ok {
		return Video{}, ErrVideoNotFound
	}
	s.videos[i].Views++
	return s.videos[i], nil
}

type storedObject struct {
	bucket      string
	path        string
	contentType string
	body        string
}

type fakeObjects struct {
	uploads   []storedObject
	removed   map[string][]string
	uploadErr error
	removeErr error
}

func (o *fakeObjects) Upload(_ context.Context, bucket, path string, body io.Reader, contentType string) (string, error) {
	if o.uploadErr != nil {
		return "", o.uploadErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	o.uploads = append(o.uploads, storedObject{bucket: bucket, path: path, contentType: contentType, body: string(b)})
	return path, nil
}

func (o *fakeObjects) PublicURL(bucket, path string) string {
	return "https://project.supabase.co/storage/v1/object/public/" + bucket + "/" + path
}

func (o *fakeObjects) Remove(_ context.Context, bucket string, paths []string) error {
	if o.removed == nil {
		o.removed = map[string][]string{}
	}
	o.removed[bucket] = append(o.removed[bucket], paths...)
	return o.removeErr
}

type fakeDurations struct {
	seconds int
	err     error
	calls   int
}

func (d *fakeDurations) ReadDuration(_ context.Context, _ string) (int, error) {
	d.calls++
	return d.seconds, d.err
}

type fakeSeed struct {
	videos []Video
	err    error
}

func (s *fakeSeed) LoadSeed(_ context.Context) ([]Video, error) {
	return s.videos, s.err
}

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestCatalog(store *fakeStore, objects *fakeObjects, durations *fakeDurations, seed SeedLoader) *Catalog {
	return NewCatalog(CatalogConfig{
		Store:     store,
		Objects:   objects,
		Durations: durations,
		Seed:      seed,
		Now:       func() time.Time { return testNow },
	})
}

func strPtr(s string) *string { return &s }
