package moderation_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/services/moderation"
	"github.com/nesivarusta/nvu_api/services/scoring"
)

type memoryCommentStore struct {
	mu       sync.Mutex
	comments map[string]*model.Comment
	slots    map[string]string
}

func newMemoryCommentStore() *memoryCommentStore {
	return &memoryCommentStore{
		comments: make(map[string]*model.Comment),
		slots:    make(map[string]string),
	}
}

func (s *memoryCommentStore) Create(_ context.Context, c *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ActiveSlot != nil {
		if _, taken := s.slots[*c.ActiveSlot]; taken {
			return moderation.ErrDuplicateSubmission
		}
		s.slots[*c.ActiveSlot] = c.ID
	}
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *memoryCommentStore) HasActive(_ context.Context, resourceID int, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.comments {
		if c.ResourceID == resourceID && c.Fingerprint == fingerprint && c.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryCommentStore) Get(_ context.Context, id string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, moderation.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memoryCommentStore) UpdateModeration(_ context.Context, c *model.Comment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.comments[c.ID]
	if !ok || stored.Status != model.CommentPending {
		return false, nil
	}
	if stored.ActiveSlot != nil && c.ActiveSlot == nil {
		delete(s.slots, *stored.ActiveSlot)
	}
	cp := *c
	s.comments[c.ID] = &cp
	return true, nil
}

func (s *memoryCommentStore) filter(keep func(*model.Comment) bool, offset, limit int) ([]model.Comment, int64) {
	var out []model.Comment
	for _, c := range s.comments {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if offset >= len(out) {
		return []model.Comment{}, total
	}
	end := min(offset+limit, len(out))
	return out[offset:end], total
}

func (s *memoryCommentStore) ListApproved(_ context.Context, resourceID, offset, limit int) ([]model.Comment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, total := s.filter(func(c *model.Comment) bool {
		return c.ResourceID == resourceID && c.Status == model.CommentApproved
	}, offset, limit)
	return out, total, nil
}

func (s *memoryCommentStore) ListByStatus(_ context.Context, status *model.CommentStatus, offset, limit int) ([]model.Comment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, total := s.filter(func(c *model.Comment) bool {
		return status == nil || c.Status == *status
	}, offset, limit)
	return out, total, nil
}

func (s *memoryCommentStore) IncrementReaction(_ context.Context, id string, reaction moderation.Reaction) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, moderation.ErrNotFound
	}
	if reaction == moderation.ReactionLike {
		c.LikesCount++
	} else {
		c.DislikesCount++
	}
	cp := *c
	return &cp, nil
}

func (s *memoryCommentStore) CountByStatus(_ context.Context) (map[model.CommentStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[model.CommentStatus]int64{}
	for _, c := range s.comments {
		out[c.Status]++
	}
	return out, nil
}

func (s *memoryCommentStore) only() *model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.comments {
		cp := *c
		return &cp
	}
	return nil
}

type fakeUsers struct {
	mu       sync.Mutex
	byDevice map[string]string
	known    map[string]bool
	counts   map[string]int
	err      error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byDevice: map[string]string{}, known: map[string]bool{}, counts: map[string]int{}}
}

func (u *fakeUsers) FindOrCreateByDeviceID(_ context.Context, deviceID string, _ clientinfo.Metadata) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	if id, ok := u.byDevice[deviceID]; ok {
		return id, nil
	}
	id := "user-" + deviceID
	u.byDevice[deviceID] = id
	u.known[id] = true
	return id, nil
}

func (u *fakeUsers) Exists(_ context.Context, userID string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.known[userID], u.err
}

func (u *fakeUsers) IncrementCommentCount(_ context.Context, userID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counts[userID]++
	return nil
}

type stubScorer struct {
	mu      sync.Mutex
	verdict *scoring.Verdict
	err     error
	calls   int
}

func (s *stubScorer) Score(_ context.Context, _ string) (*scoring.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	v := *s.verdict
	return &v, nil
}

var errScorerDown = errors.New("scorer down")

type countingRecorder struct {
	mu        sync.Mutex
	submitted map[string]int
	moderated map[string]int
	limited   map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{submitted: map[string]int{}, moderated: map[string]int{}, limited: map[string]int{}}
}

func (r *countingRecorder) CommentSubmitted(status string) {
	r.mu.Lock()
	r.submitted[status]++
	r.mu.Unlock()
}

func (r *countingRecorder) CommentModerated(action string) {
	r.mu.Lock()
	r.moderated[action]++
	r.mu.Unlock()
}

func (r *countingRecorder) RateLimited(actionClass string) {
	r.mu.Lock()
	r.limited[actionClass]++
	r.mu.Unlock()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
