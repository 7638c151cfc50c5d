package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeOrders struct {
	mu         sync.Mutex
	byID       map[primitive.ObjectID]model.Order
	replaceErr error
	insertErrs []error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byID: make(map[primitive.ObjectID]model.Order)}
}

func (f *fakeOrders) Insert(_ context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range f.byID {
		if existing.PurchaseNumber == o.PurchaseNumber {
			return repository.ErrDuplicate
		}
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.Version = 1
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id primitive.ObjectID) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrders) FindByPurchaseNumber(_ context.Context, purchaseNumber string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.byID {
		if o.PurchaseNumber == purchaseNumber {
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrders) LatestPurchaseNumber(_ context.Context, series string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	latest := ""
	for _, o := range f.byID {
		n := o.PurchaseNumber
		if strings.HasPrefix(n, series) && len(n) == len(series)+6 && n > latest {
			latest = n
		}
	}
	if latest == "" {
		return "", repository.ErrNotFound
	}
	return latest, nil
}

func (f *fakeOrders) FindAll(_ context.Context) ([]*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Order, 0, len(f.byID))
	for _, o := range f.byID {
		o := o
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func (f *fakeOrders) FindByPlacer(ctx context.Context, userID primitive.ObjectID) ([]*model.Order, error) {
	all, _ := f.FindAll(ctx)
	var out []*model.Order
	for _, o := range all {
		if o.PlacedBy != nil && *o.PlacedBy == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) Replace(_ context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	current, ok := f.byID[o.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != o.Version {
		return repository.ErrVersionConflict
	}
	o.Version++
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOrders) Delete(_ context.Context, id primitive.ObjectID) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.byID, id)
	return &o, nil
}

func (f *fakeOrders) SumPaidSince(_ context.Context, since time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum float64
	for _, o := range f.byID {
		if o.PaymentStatus != model.PaymentCompleted {
			continue
		}
		if !since.IsZero() && o.OrderDate.Before(since) {
			continue
		}
		sum += o.TotalAmount
	}
	return sum, nil
}

// put stores an order as-is, bypassing Insert.
func (f *fakeOrders) put(o model.Order) *model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.PurchaseNumber == "" {
		o.PurchaseNumber = "PO-" + o.ID.Hex()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	f.byID[o.ID] = o
	return &o
}

func (f *fakeOrders) get(id primitive.ObjectID) model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

type fakeTracking struct {
	mu        sync.Mutex
	updates   []*model.TrackingUpdate
	insertErr error
}

func (f *fakeTracking) Insert(_ context.Context, u *model.TrackingUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	f.updates = append(f.updates, &cp)
	return nil
}

func (f *fakeTracking) FindByOrder(_ context.Context, orderID primitive.ObjectID) ([]*model.TrackingUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TrackingUpdate
	for _, u := range f.updates {
		if u.Order == orderID {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTracking) forOrder(orderID primitive.ObjectID) []*model.TrackingUpdate {
	out, _ := f.FindByOrder(context.Background(), orderID)
	return out
}

type fakeUsers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*model.User
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: make(map[primitive.ObjectID]*model.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Insert(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.User, error) {
	var out []*model.User
	for _, id := range ids {
		if u, err := f.FindByID(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) FindByRole(_ context.Context, role model.Role, includeDeleted bool) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.User
	for _, u := range f.byID {
		if u.Role == role && (includeDeleted || !u.IsDeleted) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUsers) Replace(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range f.byID {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeProducts struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*model.Product
}

func newFakeProducts(products ...*model.Product) *fakeProducts {
	f := &fakeProducts{byID: make(map[primitive.ObjectID]*model.Product)}
	for _, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProducts) Insert(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.ProductName == p.ProductName {
			return repository.ErrDuplicate
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProducts) FindByID(_ context.Context, id primitive.ObjectID) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) FindByName(_ context.Context, name string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.ProductName == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProducts) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Product, error) {
	var out []*model.Product
	for _, id := range ids {
		if p, err := f.FindByID(ctx, id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) List(_ context.Context, filter model.ProductFilter) ([]*model.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*model.Product
	for _, p := range f.byID {
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ProductName < matched[j].ProductName })
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeProducts) Replace(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id primitive.ObjectID) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.byID, id)
	return p, nil
}

type fakeCategories struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*model.Category
}

func newFakeCategories(cats ...*model.Category) *fakeCategories {
	f := &fakeCategories{byID: make(map[primitive.ObjectID]*model.Category)}
	for _, c := range cats {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCategories) Insert(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCategories) FindByID(_ context.Context, id primitive.ObjectID) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategories) FindByName(_ context.Context, name string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCategories) FindAll(_ context.Context) ([]*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Category
	for _, c := range f.byID {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeCategories) Replace(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*model.AuditLog
}

func (f *fakeAudit) Insert(_ context.Context, l *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, l)
	return nil
}

type fakeResets struct {
	mu       sync.Mutex
	requests []*model.PasswordResetRequest
}

func (f *fakeResets) Insert(_ context.Context, r *model.PasswordResetRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	cp := *r
	f.requests = append(f.requests, &cp)
	return nil
}

func (f *fakeResets) FindLatestByUser(_ context.Context, userID primitive.ObjectID) (*model.PasswordResetRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].UserID == userID {
			cp := *f.requests[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeResets) FindByCode(_ context.Context, code string) (*model.PasswordResetRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Code == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeResets) MarkActivated(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.ID == id && !r.Activated {
			r.Activated = true
			return nil
		}
	}
	return repository.ErrNotFound
}

type sequenceNumbers struct {
	mu    sync.Mutex
	n     int
	fixed []string
}

func (s *sequenceNumbers) Next(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fixed) > 0 {
		n := s.fixed[0]
		s.fixed = s.fixed[1:]
		return n, nil
	}
	s.n++
	return fmt.Sprintf("PO-TEST-%06d", s.n), nil
}

type publishedEvent struct {
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{key: key, event: event})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.key)
	}
	return out
}

type memorySalesCache struct {
	mu    sync.Mutex
	byDay map[string]model.SalesSummary
	gets  int
}

func (c *memorySalesCache) Get(_ context.Context, day string) (*model.SalesSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	s, ok := c.byDay[day]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *memorySalesCache) Set(_ context.Context, day string, s *model.SalesSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byDay == nil {
		c.byDay = make(map[string]model.SalesSummary)
	}
	c.byDay[day] = *s
	return nil
}

var errStoreDown = errors.New("store unavailable")

// fixedClock returns increasing times starting at base so tracking entries
// get distinct timestamps.
func fixedClock(base time.Time) func() time.Time {
	var mu sync.Mutex
	tick := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
}
