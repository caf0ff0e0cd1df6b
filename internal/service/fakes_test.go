package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"app/internal/model"
)

// In-memory repository fakes shared by the service tests.

type fakeCreditRepo struct {
	mu        sync.Mutex
	balance   int
	deductErr error
	refunds   []int
	grants    map[string]int // reference -> amount
}

func newFakeCreditRepo(balance int) *fakeCreditRepo {
	return &fakeCreditRepo{balance: balance, grants: make(map[string]int)}
}

func (r *fakeCreditRepo) GetBalance(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance, nil
}

func (r *fakeCreditRepo) DeductCredits(ctx context.Context, userID string, cost int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deductErr != nil {
		return 0, false, r.deductErr
	}
	if r.balance < cost {
		return r.balance, false, nil
	}
	r.balance -= cost
	return r.balance, true, nil
}

func (r *fakeCreditRepo) RefundCredits(ctx context.Context, userID string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balance += amount
	r.refunds = append(r.refunds, amount)
	return nil
}

func (r *fakeCreditRepo) AddCredits(ctx context.Context, userID string, amount int, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.grants[reference]; seen {
		return nil
	}
	r.grants[reference] = amount
	r.balance += amount
	return nil
}

type fakeSubscriptionRepo struct {
	sub      *model.Subscription
	upserted []*model.Subscription
}

func (r *fakeSubscriptionRepo) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	return r.sub, nil
}

func (r *fakeSubscriptionRepo) UpsertSubscription(ctx context.Context, sub *model.Subscription) error {
	r.upserted = append(r.upserted, sub)
	r.sub = sub
	return nil
}

func (r *fakeSubscriptionRepo) SetStatusBySubscriptionID(ctx context.Context, stripeSubscriptionID, status string) error {
	if r.sub != nil && r.sub.StripeSubscriptionID == stripeSubscriptionID {
		r.sub.Status = status
	}
	return nil
}

func (r *fakeSubscriptionRepo) SetStatusAndPeriodBySubscriptionID(ctx context.Context, stripeSubscriptionID, status string, periodStart, periodEnd time.Time) error {
	if r.sub != nil && r.sub.StripeSubscriptionID == stripeSubscriptionID {
		r.sub.Status = status
		r.sub.CurrentPeriodStart = periodStart
		r.sub.CurrentPeriodEnd = periodEnd
	}
	return nil
}

type fakeCreationLogRepo struct {
	entries []time.Time
}

func (r *fakeCreationLogRepo) CountCreationsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	n := 0
	for _, e := range r.entries {
		if !e.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeCreationLogRepo) RecordCreation(ctx context.Context, userID string) error {
	r.entries = append(r.entries, time.Now())
	return nil
}

func (r *fakeCreationLogRepo) OldestCreationSince(ctx context.Context, userID string, since time.Time) (time.Time, error) {
	var oldest time.Time
	for _, e := range r.entries {
		if e.Before(since) {
			continue
		}
		if oldest.IsZero() || e.Before(oldest) {
			oldest = e
		}
	}
	return oldest, nil
}

type fakeCharacterRepo struct {
	mu        sync.Mutex
	nextID    int
	chars     map[string]*model.Character
	createErr error
	deleted   []string
}

func newFakeCharacterRepo() *fakeCharacterRepo {
	return &fakeCharacterRepo{chars: make(map[string]*model.Character)}
}

func (r *fakeCharacterRepo) CreateCharacter(ctx context.Context, c *model.Character) (*model.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	created := *c
	created.ID = fmt.Sprintf("char-%d", r.nextID)
	created.CreatedAt = time.Now()
	r.chars[created.ID] = &created
	return &created, nil
}

func (r *fakeCharacterRepo) GetCharacterByID(ctx context.Context, id string) (*model.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chars[id], nil
}

func (r *fakeCharacterRepo) DeleteCharacter(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chars, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeCharacterRepo) GetOwnedPortraitPaths(ctx context.Context, userID string, ids []string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make(map[string]string)
	for _, id := range ids {
		c, ok := r.chars[id]
		if !ok || c.UserID != userID || c.PortraitPath == "" {
			continue
		}
		paths[id] = c.PortraitPath
	}
	return paths, nil
}

type fakeStoryRepo struct {
	mu        sync.Mutex
	nextID    int
	stories   map[string]*model.Story
	pages     map[string][]model.Page
	upsertErr error
}

func newFakeStoryRepo() *fakeStoryRepo {
	return &fakeStoryRepo{
		stories: make(map[string]*model.Story),
		pages:   make(map[string][]model.Page),
	}
}

func (r *fakeStoryRepo) CreateActiveStory(ctx context.Context, s *model.Story) (*model.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.stories {
		if existing.CharacterID == s.CharacterID {
			existing.IsActive = false
		}
	}
	r.nextID++
	created := *s
	created.ID = fmt.Sprintf("story-%d", r.nextID)
	created.IsActive = true
	created.CreatedAt = time.Now()
	r.stories[created.ID] = &created
	return &created, nil
}

func (r *fakeStoryRepo) GetStoryByID(ctx context.Context, id string) (*model.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stories[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeStoryRepo) ListStoriesByCharacter(ctx context.Context, characterID string) ([]model.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Story
	for _, s := range r.stories {
		if s.CharacterID == characterID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeStoryRepo) UpdateStoryStatus(ctx context.Context, storyID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stories[storyID]; ok {
		s.Status = status
	}
	return nil
}

func (r *fakeStoryRepo) FinishStory(ctx context.Context, storyID string, totalPages int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stories[storyID]; ok {
		s.Status = model.StoryStatusReady
		s.TotalPages = totalPages
	}
	return nil
}

func (r *fakeStoryRepo) GetPageNumbers(ctx context.Context, storyID string) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var nums []int
	for _, p := range r.pages[storyID] {
		nums = append(nums, p.PageNumber)
	}
	sort.Ints(nums)
	return nums, nil
}

func (r *fakeStoryRepo) GetPages(ctx context.Context, storyID string) ([]model.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pages := append([]model.Page(nil), r.pages[storyID]...)
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return pages, nil
}

func (r *fakeStoryRepo) GetPage(ctx context.Context, storyID string, pageNumber int) (*model.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.pages[storyID] {
		if r.pages[storyID][i].PageNumber == pageNumber {
			return &r.pages[storyID][i], nil
		}
	}
	return nil, nil
}

func (r *fakeStoryRepo) UpsertPages(ctx context.Context, pages []model.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	for _, p := range pages {
		exists := false
		for _, have := range r.pages[p.StoryID] {
			if have.PageNumber == p.PageNumber {
				exists = true
				break
			}
		}
		if !exists {
			r.pages[p.StoryID] = append(r.pages[p.StoryID], p)
		}
	}
	return nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.ReminderToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*model.ReminderToken)}
}

func (r *fakeTokenRepo) CreateToken(ctx context.Context, t *model.ReminderToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *t
	stored.CreatedAt = time.Now()
	r.tokens[t.Token] = &stored
	return nil
}

func (r *fakeTokenRepo) GetToken(ctx context.Context, token string) (*model.ReminderToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTokenRepo) MarkTokenUsed(ctx context.Context, token string, usedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.UsedAt != nil {
		return false, nil
	}
	at := usedAt
	t.UsedAt = &at
	return true, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.StripeCustomerID = &customerID
	}
	return nil
}

func (r *fakeUserRepo) SetRemindersOptIn(ctx context.Context, userID string, optIn bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.RemindersOptIn = optIn
	}
	return nil
}

type fakePresigner struct {
	mu     sync.Mutex
	err    error
	signed []string
}

func (p *fakePresigner) PresignGetURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.signed = append(p.signed, key)
	return "https://signed.example/" + key, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return fmt.Sprintf("msg-%d", len(p.payloads)), nil
}
