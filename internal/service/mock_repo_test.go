package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"marketplace/internal/mail"
	"marketplace/internal/models"
	"marketplace/internal/repository"
)

// memUsers is an in-memory repository.Users used across service tests.
type memUsers struct {
	mu     sync.Mutex
	byID   map[int]models.User
	nextID int

	err       error // returned by every call when set
	updateErr error // returned by UpdateProfile/UpdatePassword when set
}

func newMemUsers(users ...models.User) *memUsers {
	m := &memUsers{byID: map[int]models.User{}, nextID: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = m.nextID
		}
		m.byID[u.ID] = u
		if u.ID >= m.nextID {
			m.nextID = u.ID + 1
		}
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u models.User) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	for _, o := range m.byID {
		if o.Username == u.Username || o.Email == u.Email {
			return 0, repository.ErrDuplicate
		}
	}
	u.ID = m.nextID
	m.nextID++
	m.byID[u.ID] = u
	return u.ID, nil
}

func (m *memUsers) find(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Username == username })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == email })
}

func (m *memUsers) UpdateProfile(_ context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	m.byID[id] = u
	return nil
}

func (m *memUsers) get(id int) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

// memListings is an in-memory repository.Listings joined against memUsers.
type memListings struct {
	mu     sync.Mutex
	users  *memUsers
	rows   map[int]models.Listing
	nextID int

	createErr error
	updateErr error
	deleteErr error
}

func newMemListings(users *memUsers) *memListings {
	return &memListings{users: users, rows: map[int]models.Listing{}, nextID: 1}
}

func (m *memListings) withSeller(l models.Listing) models.Listing {
	l.Seller = m.users.get(l.SellerID).Username
	return l
}

func (m *memListings) Create(_ context.Context, l models.Listing) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	l.ID = m.nextID
	m.nextID++
	if l.PostedAt.IsZero() {
		l.PostedAt = time.Now().UTC().Add(time.Duration(l.ID) * time.Millisecond)
	}
	m.rows[l.ID] = l
	return l.ID, nil
}

func (m *memListings) GetByID(_ context.Context, id int) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	l = m.withSeller(l)
	return &l, nil
}

func (m *memListings) Update(_ context.Context, l models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.rows[l.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rows[l.ID] = l
	return nil
}

func (m *memListings) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memListings) sorted(match func(models.Listing) bool) []models.Listing {
	out := make([]models.Listing, 0, len(m.rows))
	for _, l := range m.rows {
		if match(l) {
			out = append(out, m.withSeller(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostedAt.Equal(out[j].PostedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].PostedAt.After(out[j].PostedAt)
	})
	return out
}

func window(ls []models.Listing, limit, offset int) []models.Listing {
	if offset >= len(ls) {
		return []models.Listing{}
	}
	return ls[offset:min(offset+limit, len(ls))]
}

func (m *memListings) ListRecent(_ context.Context, limit, offset int) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return window(m.sorted(func(models.Listing) bool { return true }), limit, offset), nil
}

func (m *memListings) CountAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *memListings) ListBySeller(_ context.Context, sellerID, limit, offset int) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return window(m.sorted(func(l models.Listing) bool { return l.SellerID == sellerID }), limit, offset), nil
}

func (m *memListings) CountBySeller(_ context.Context, sellerID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sorted(func(l models.Listing) bool { return l.SellerID == sellerID })), nil
}

// fakeUploader records Store/Remove calls without touching storage.
type fakeUploader struct {
	storeErr error
	next     int

	stored  []string
	modes   []UploadMode
	removed []string
}

func (f *fakeUploader) Store(_ context.Context, up Upload, mode UploadMode) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	_, _ = io.Copy(io.Discard, up.Content)
	f.next++
	name := strings.Repeat("a", 15) + string(rune('0'+f.next%10)) + ".png"
	f.stored = append(f.stored, name)
	f.modes = append(f.modes, mode)
	return name, nil
}

func (f *fakeUploader) Remove(_ context.Context, current, def string) {
	if current == "" || current == def {
		return
	}
	f.removed = append(f.removed, current)
}

// fakeMailer records sent messages.
type fakeMailer struct {
	err  error
	sent []mail.Message
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}
