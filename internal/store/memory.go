package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"promptionary/internal/domain"

	"gorm.io/datatypes"
)

// memData is the full state of a Memory store, values only so a shallow map copy is a snapshot
type memData struct {
	seq          uint
	accounts     map[uint]domain.Account
	categories   map[uint]domain.Category
	entries      map[uint]domain.Entry
	translations map[uint]domain.Translation // keyed by entry id
	links        map[domain.EntryCategory]struct{}
	transactions map[uint]domain.Transaction
}

func newMemData() *memData {
	return &memData{
		accounts:     map[uint]domain.Account{},
		categories:   map[uint]domain.Category{},
		entries:      map[uint]domain.Entry{},
		translations: map[uint]domain.Translation{},
		links:        map[domain.EntryCategory]struct{}{},
		transactions: map[uint]domain.Transaction{},
	}
}

func (d *memData) clone() *memData {
	return &memData{
		seq:          d.seq,
		accounts:     maps.Clone(d.accounts),
		categories:   maps.Clone(d.categories),
		entries:      maps.Clone(d.entries),
		translations: maps.Clone(d.translations),
		links:        maps.Clone(d.links),
		transactions: maps.Clone(d.transactions),
	}
}

func (d *memData) nextID() uint {
	d.seq++
	return d.seq
}

// Memory is an in-process Store used for local runs (DB_DRIVER=memory) and tests.
// A transaction holds the store lock and restores a snapshot when fn fails.
type Memory struct {
	mu   *sync.Mutex
	data **memData
	inTx bool
	now  func() time.Time
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	d := newMemData()
	return &Memory{mu: &sync.Mutex{}, data: &d, now: time.Now}
}

func (m *Memory) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *Memory) d() *memData {
	return *m.data
}

// Transaction applies fn atomically, state is rolled back when fn returns an error
func (m *Memory) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.d().clone()
	tx := &Memory{mu: m.mu, data: m.data, inTx: true, now: m.now}
	if err := fn(tx); err != nil {
		*m.data = snapshot
		return err
	}
	return nil
}

func (m *Memory) CreateAccount(ctx context.Context, account *domain.Account) error {
	defer m.lock()()
	d := m.d()
	for _, a := range d.accounts {
		if a.Username == account.Username || a.Email == account.Email {
			return ErrDuplicateKey
		}
	}
	account.ID = d.nextID()
	if account.Tier == "" {
		account.Tier = domain.TierFree
	}
	account.CreatedAt = m.now()
	account.UpdatedAt = account.CreatedAt
	d.accounts[account.ID] = *account
	return nil
}

func (m *Memory) GetAccount(ctx context.Context, id uint) (*domain.Account, error) {
	defer m.lock()()
	a, ok := m.d().accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

// LockAccount is GetAccount, the store lock already serializes transactions
func (m *Memory) LockAccount(ctx context.Context, id uint) (*domain.Account, error) {
	return m.GetAccount(ctx, id)
}

func (m *Memory) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	defer m.lock()()
	for _, a := range m.d().accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) SaveAccount(ctx context.Context, account *domain.Account) error {
	defer m.lock()()
	d := m.d()
	if _, ok := d.accounts[account.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, a := range d.accounts {
		if id != account.ID && (a.Username == account.Username || a.Email == account.Email) {
			return ErrDuplicateKey
		}
	}
	account.UpdatedAt = m.now()
	d.accounts[account.ID] = *account
	return nil
}

func (m *Memory) SetAccountTier(ctx context.Context, id uint, tier domain.Tier) error {
	defer m.lock()()
	d := m.d()
	a, ok := d.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Tier = tier
	a.UpdatedAt = m.now()
	d.accounts[id] = a
	return nil
}

func (m *Memory) ListCategories(ctx context.Context, accountID uint) ([]domain.Category, error) {
	defer m.lock()()
	var out []domain.Category
	for _, c := range m.d().categories {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetCategory(ctx context.Context, accountID, id uint) (*domain.Category, error) {
	defer m.lock()()
	c, ok := m.d().categories[id]
	if !ok || c.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) FindCategoryByName(ctx context.Context, accountID uint, name string) (*domain.Category, error) {
	defer m.lock()()
	for _, c := range m.d().categories {
		if c.AccountID == accountID && c.Name == name {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) CountCategories(ctx context.Context, accountID uint, ids []uint) (int64, error) {
	defer m.lock()()
	var n int64
	for _, id := range ids {
		if c, ok := m.d().categories[id]; ok && c.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) nameTaken(accountID, exceptID uint, name string) bool {
	for id, c := range m.d().categories {
		if id != exceptID && c.AccountID == accountID && c.Name == name {
			return true
		}
	}
	return false
}

func (m *Memory) CreateCategory(ctx context.Context, category *domain.Category) error {
	defer m.lock()()
	d := m.d()
	if m.nameTaken(category.AccountID, 0, category.Name) {
		return ErrDuplicateKey
	}
	category.ID = d.nextID()
	category.CreatedAt = m.now()
	category.UpdatedAt = category.CreatedAt
	d.categories[category.ID] = *category
	return nil
}

func (m *Memory) SaveCategory(ctx context.Context, category *domain.Category) error {
	defer m.lock()()
	d := m.d()
	if _, ok := d.categories[category.ID]; !ok {
		return domain.ErrNotFound
	}
	if m.nameTaken(category.AccountID, category.ID, category.Name) {
		return ErrDuplicateKey
	}
	category.UpdatedAt = m.now()
	d.categories[category.ID] = *category
	return nil
}

func (m *Memory) DeleteCategory(ctx context.Context, accountID, id uint) error {
	defer m.lock()()
	d := m.d()
	c, ok := d.categories[id]
	if !ok || c.AccountID != accountID {
		return domain.ErrNotFound
	}
	delete(d.categories, id)
	for link := range d.links {
		if link.CategoryID == id {
			delete(d.links, link)
		}
	}
	return nil
}

func (m *Memory) CountEntries(ctx context.Context, accountID uint) (int64, error) {
	defer m.lock()()
	var n int64
	for _, e := range m.d().entries {
		if e.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CreateEntry(ctx context.Context, entry *domain.Entry) error {
	defer m.lock()()
	d := m.d()
	entry.ID = d.nextID()
	entry.CreatedAt = m.now()
	entry.UpdatedAt = entry.CreatedAt
	stored := *entry
	stored.Translation, stored.Categories = nil, nil
	d.entries[entry.ID] = stored
	return nil
}

// hydrate attaches the translation and categories the way a preload would
func (m *Memory) hydrate(e domain.Entry) domain.Entry {
	d := m.d()
	if t, ok := d.translations[e.ID]; ok {
		e.Translation = &t
	}
	e.Categories = []domain.Category{}
	for link := range d.links {
		if link.EntryID == e.ID {
			if c, ok := d.categories[link.CategoryID]; ok {
				e.Categories = append(e.Categories, c)
			}
		}
	}
	sort.Slice(e.Categories, func(i, j int) bool { return e.Categories[i].ID < e.Categories[j].ID })
	return e
}

func (m *Memory) GetEntry(ctx context.Context, accountID, id uint) (*domain.Entry, error) {
	defer m.lock()()
	e, ok := m.d().entries[id]
	if !ok || e.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	e = m.hydrate(e)
	return &e, nil
}

func (m *Memory) ListEntries(ctx context.Context, accountID uint, entryType string) ([]domain.Entry, error) {
	defer m.lock()()
	var out []domain.Entry
	for _, e := range m.d().entries {
		if e.AccountID != accountID || (entryType != "" && e.Type != entryType) {
			continue
		}
		out = append(out, m.hydrate(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) SaveEntry(ctx context.Context, entry *domain.Entry) error {
	defer m.lock()()
	d := m.d()
	if _, ok := d.entries[entry.ID]; !ok {
		return domain.ErrNotFound
	}
	entry.UpdatedAt = m.now()
	stored := *entry
	stored.Translation, stored.Categories = nil, nil
	d.entries[entry.ID] = stored
	return nil
}

func (m *Memory) DeleteEntry(ctx context.Context, accountID, id uint) error {
	defer m.lock()()
	d := m.d()
	e, ok := d.entries[id]
	if !ok || e.AccountID != accountID {
		return domain.ErrNotFound
	}
	delete(d.translations, id)
	for link := range d.links {
		if link.EntryID == id {
			delete(d.links, link)
		}
	}
	delete(d.entries, id)
	return nil
}

func (m *Memory) SaveTranslation(ctx context.Context, translation *domain.Translation) error {
	defer m.lock()()
	d := m.d()
	now := m.now()
	if existing, ok := d.translations[translation.EntryID]; ok {
		translation.ID = existing.ID
		translation.CreatedAt = existing.CreatedAt
	} else {
		translation.ID = d.nextID()
		translation.CreatedAt = now
	}
	translation.UpdatedAt = now
	d.translations[translation.EntryID] = *translation
	return nil
}

func (m *Memory) ReplaceEntryCategories(ctx context.Context, entryID uint, categoryIDs []uint) error {
	defer m.lock()()
	d := m.d()
	for link := range d.links {
		if link.EntryID == entryID {
			delete(d.links, link)
		}
	}
	for _, id := range categoryIDs {
		d.links[domain.EntryCategory{EntryID: entryID, CategoryID: id}] = struct{}{}
	}
	return nil
}

func (m *Memory) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	defer m.lock()()
	d := m.d()
	for _, t := range d.transactions {
		if t.OrderID == tx.OrderID {
			return ErrDuplicateKey
		}
	}
	tx.ID = d.nextID()
	tx.CreatedAt = m.now()
	tx.UpdatedAt = tx.CreatedAt
	d.transactions[tx.ID] = *tx
	return nil
}

func (m *Memory) UpdateTransactionStatus(ctx context.Context, id uint, status domain.TxStatus, fraudStatus string, notification datatypes.JSON) error {
	defer m.lock()()
	d := m.d()
	t, ok := d.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = status
	t.FraudStatus = fraudStatus
	if len(notification) > 0 {
		t.LastNotification = slices.Clone(notification)
	}
	t.UpdatedAt = m.now()
	d.transactions[id] = t
	return nil
}

func (m *Memory) SetRedirectURL(ctx context.Context, id uint, redirectURL string) error {
	defer m.lock()()
	d := m.d()
	t, ok := d.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.RedirectURL = redirectURL
	t.UpdatedAt = m.now()
	d.transactions[id] = t
	return nil
}

func (m *Memory) GetTransaction(ctx context.Context, accountID, id uint) (*domain.Transaction, error) {
	defer m.lock()()
	t, ok := m.d().transactions[id]
	if !ok || t.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *Memory) FindTransactionByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	defer m.lock()()
	for _, t := range m.d().transactions {
		if t.OrderID == orderID {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) FindPendingTransaction(ctx context.Context, accountID uint) (*domain.Transaction, error) {
	defer m.lock()()
	for _, t := range m.d().transactions {
		if t.AccountID == accountID && t.Status == domain.TxPending {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) ListTransactions(ctx context.Context, accountID uint) ([]domain.Transaction, error) {
	defer m.lock()()
	var out []domain.Transaction
	for _, t := range m.d().transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
