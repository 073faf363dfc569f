package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/adboardhq/adboard/internal/models"
	"github.com/google/uuid"
)

// FakeLoginAttemptStore is an in-memory LoginAttemptStore for tests. It keeps
// real timestamps so sliding-window queries behave like the database.
type FakeLoginAttemptStore struct {
	mu       sync.Mutex
	Attempts []*models.LoginAttempt

	RecordErr error
	CountErr  error
	DeleteErr error

	// CountErrAfter, when positive, lets that many CountFailedAttempts calls
	// succeed before the store starts failing.
	CountErrAfter int
	countCalls    int
}

func NewFakeLoginAttemptStore() *FakeLoginAttemptStore {
	return &FakeLoginAttemptStore{}
}

func (f *FakeLoginAttemptStore) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	if f.RecordErr != nil {
		return f.RecordErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := *attempt
	stored.ID = uuid.New().String()
	if stored.AttemptTime.IsZero() {
		stored.AttemptTime = time.Now()
	}
	f.Attempts = append(f.Attempts, &stored)
	return nil
}

func (f *FakeLoginAttemptStore) CountFailedAttempts(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	if f.CountErr != nil {
		return 0, f.CountErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.countCalls++
	if f.CountErrAfter > 0 && f.countCalls > f.CountErrAfter {
		return 0, errors.New("count query failed")
	}

	count := 0
	for _, a := range f.Attempts {
		if a.IPAddress == ipAddress && !a.IsSuccessful && !a.AttemptTime.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *FakeLoginAttemptStore) DeleteByIP(ctx context.Context, ipAddress string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.Attempts[:0]
	for _, a := range f.Attempts {
		if a.IPAddress != ipAddress {
			kept = append(kept, a)
		}
	}
	f.Attempts = kept
	return nil
}

// SeedFailure inserts a failed attempt recorded at the given time.
func (f *FakeLoginAttemptStore) SeedFailure(ipAddress, adminName string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Attempts = append(f.Attempts, &models.LoginAttempt{
		ID:          uuid.New().String(),
		IPAddress:   ipAddress,
		AdminName:   adminName,
		AttemptTime: at,
	})
}

// Len returns the total number of stored attempt rows.
func (f *FakeLoginAttemptStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Attempts)
}

// FakeAdminStore is an in-memory AdminStore for tests.
type FakeAdminStore struct {
	Admins map[string]*models.Admin
	GetErr error

	// Lookups counts GetByName calls, letting tests assert the blocked
	// short-circuit never touches the credential table.
	Lookups int
}

func NewFakeAdminStore() *FakeAdminStore {
	return &FakeAdminStore{Admins: make(map[string]*models.Admin)}
}

func (f *FakeAdminStore) GetByName(ctx context.Context, adminName string) (*models.Admin, error) {
	f.Lookups++
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	admin, ok := f.Admins[adminName]
	if !ok {
		return nil, models.ErrNotFound
	}
	return admin, nil
}

// FakeAdRequestStore is an in-memory AdRequestStore for tests.
type FakeAdRequestStore struct {
	mu       sync.Mutex
	Requests []*models.AdvertisementRequest

	CreateErr error
	ListErr   error
	DeleteErr error
	RecentErr error
}

func NewFakeAdRequestStore() *FakeAdRequestStore {
	return &FakeAdRequestStore{}
}

func (f *FakeAdRequestStore) Create(ctx context.Context, req *models.AdvertisementRequest) (*models.AdvertisementRequest, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := *req
	stored.ID = uuid.New().String()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = stored.CreatedAt
	f.Requests = append(f.Requests, &stored)
	return &stored, nil
}

func (f *FakeAdRequestStore) List(ctx context.Context) ([]*models.AdvertisementRequest, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*models.AdvertisementRequest, len(f.Requests))
	copy(out, f.Requests)
	// created_at DESC, matching the repository query
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *FakeAdRequestStore) Delete(ctx context.Context, id string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.Requests[:0]
	for _, r := range f.Requests {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	f.Requests = kept
	return nil
}

func (f *FakeAdRequestStore) HasRecentRequest(ctx context.Context, userIP string, since time.Time) (bool, error) {
	if f.RecentErr != nil {
		return false, f.RecentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.Requests {
		if r.UserIP == userIP && !r.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// SeedRequest inserts a request created at the given time.
func (f *FakeAdRequestStore) SeedRequest(userIP string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, &models.AdvertisementRequest{
		ID:        uuid.New().String(),
		Email:     "seed@example.com",
		Budget:    5000,
		UserIP:    userIP,
		CreatedAt: at,
		UpdatedAt: at,
	})
}
