package learner

import (
	"context"
	"sort"
	"time"

	"github.com/easeaico/tryangel/internal/types"
)

type fakeProfileRepo struct {
	profiles map[string]*types.Profile
	now      time.Time
}

func newFakeProfileRepo(now time.Time) *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*types.Profile{}, now: now}
}

func (r *fakeProfileRepo) Get(_ context.Context, userID string) (*types.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *fakeProfileRepo) GetOrCreate(ctx context.Context, userID string) (*types.Profile, error) {
	if _, ok := r.profiles[userID]; !ok {
		r.profiles[userID] = types.NewProfile(userID, r.now)
	}
	return r.Get(ctx, userID)
}

func (r *fakeProfileRepo) Update(_ context.Context, userID string, fn func(*types.Profile) error) (*types.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, types.ErrNotFound
	}
	next := p.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	r.profiles[userID] = next
	return next.Clone(), nil
}

func (r *fakeProfileRepo) ListUserIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func newTestService(now time.Time) (*Service, *fakeProfileRepo) {
	repo := newFakeProfileRepo(now)
	svc := NewService(repo)
	svc.nowFunc = func() time.Time { return now }
	svc.intn = func(int) int { return 0 }
	return svc, repo
}

func speed(v float64) *float64 { return &v }
