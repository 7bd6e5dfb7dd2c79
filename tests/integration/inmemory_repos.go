package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.Name == m.Name {
			return apperror.Conflict("merchant name already exists")
		}
	}
	cp := *m
	r.merchants[m.ID] = &cp
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *inMemoryMerchantRepo) GetByAPIKey(ctx context.Context, apiKeyPrefix string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.APIKey == apiKeyPrefix {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMerchantRepo) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.merchants[id]; ok {
		now := time.Now().UTC()
		m.LastUsedAt = &now
	}
	return nil
}

// --- In-Memory Wallet Link Repo ---

// inMemoryWalletLinkRepo emulates the partial unique index on
// (merchant_id, mobile_number) WHERE status = 'ACTIVE': any write that
// would produce a second ACTIVE row for the pair is rejected.
type inMemoryWalletLinkRepo struct {
	mu    sync.RWMutex
	links map[uuid.UUID]*domain.WalletLink
}

func newInMemoryWalletLinkRepo() *inMemoryWalletLinkRepo {
	return &inMemoryWalletLinkRepo{links: make(map[uuid.UUID]*domain.WalletLink)}
}

func (r *inMemoryWalletLinkRepo) activeConflict(l *domain.WalletLink) bool {
	if l.Status != domain.WalletLinkStatusActive {
		return false
	}
	for _, other := range r.links {
		if other.ID != l.ID &&
			other.MerchantID == l.MerchantID &&
			other.MobileNumber == l.MobileNumber &&
			other.Status == domain.WalletLinkStatusActive {
			return true
		}
	}
	return false
}

func (r *inMemoryWalletLinkRepo) Create(ctx context.Context, l *domain.WalletLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeConflict(l) {
		return apperror.ErrActiveLinkExists()
	}
	cp := *l
	r.links[l.ID] = &cp
	return nil
}

func (r *inMemoryWalletLinkRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.links[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *inMemoryWalletLinkRepo) Update(ctx context.Context, l *domain.WalletLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[l.ID]; !ok {
		return fmt.Errorf("wallet link not found: %s", l.ID)
	}
	if r.activeConflict(l) {
		return apperror.ErrActiveLinkExists()
	}
	cp := *l
	r.links[l.ID] = &cp
	return nil
}

func (r *inMemoryWalletLinkRepo) UpdateInTx(ctx context.Context, tx pgx.Tx, l *domain.WalletLink) error {
	return r.Update(ctx, l)
}

func (r *inMemoryWalletLinkRepo) FindActive(ctx context.Context, merchantID uuid.UUID, mobileNumber string) (*domain.WalletLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.links {
		if l.MerchantID == merchantID && l.MobileNumber == mobileNumber && l.Status == domain.WalletLinkStatusActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletLinkRepo) FindActiveByMerchantOrder(ctx context.Context, merchantID uuid.UUID, merchantOrderID string) (*domain.WalletLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.links {
		if l.MerchantID == merchantID && l.MerchantOrderID == merchantOrderID && l.Status == domain.WalletLinkStatusActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletLinkRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WalletLink, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []domain.WalletLink
	for _, l := range r.links {
		if l.MerchantID == merchantID {
			all = append(all, *l)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *inMemoryWalletLinkRepo) ListByMerchantAndMobile(ctx context.Context, merchantID uuid.UUID, mobileNumber string) ([]domain.WalletLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.WalletLink
	for _, l := range r.links {
		if l.MerchantID == merchantID && l.MobileNumber == mobileNumber {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *inMemoryWalletLinkRepo) ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for _, l := range r.links {
		if l.Status == domain.WalletLinkStatusActive && l.ExpiresAt != nil && l.ExpiresAt.Before(cutoff) {
			l.Status = domain.WalletLinkStatusExpired
			l.UpdatedAt = time.Now().UTC()
			affected++
		}
	}
	return affected, nil
}

// --- In-Memory Transaction Repo ---

// inMemoryTransactionRepo emulates the unique constraint on
// merchant_order_id, which carries the idempotency guarantee.
type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	txns    map[uuid.UUID]*domain.Transaction
	byOrder map[string]uuid.UUID
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{
		txns:    make(map[uuid.UUID]*domain.Transaction),
		byOrder: make(map[string]uuid.UUID),
	}
}

func (r *inMemoryTransactionRepo) CreateInTx(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byOrder[txn.MerchantOrderID]; exists {
		return apperror.ErrDuplicateOrder(txn.MerchantOrderID)
	}
	cp := *txn
	r.txns[txn.ID] = &cp
	r.byOrder[txn.MerchantOrderID] = txn.ID
	return nil
}

func (r *inMemoryTransactionRepo) CreateIfAbsent(ctx context.Context, txn *domain.Transaction) (bool, *domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existingID, exists := r.byOrder[txn.MerchantOrderID]; exists {
		cp := *r.txns[existingID]
		return false, &cp, nil
	}
	cp := *txn
	r.txns[txn.ID] = &cp
	r.byOrder[txn.MerchantOrderID] = txn.ID
	return true, nil, nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txn, ok := r.txns[id]
	if !ok {
		return nil, nil
	}
	cp := *txn
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byOrder[merchantOrderID]
	if !ok {
		return nil, nil
	}
	cp := *r.txns[id]
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, txn := range r.txns {
		if txn.ProviderOrderID == providerOrderID {
			cp := *txn
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) Update(ctx context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txns[txn.ID]; !ok {
		return fmt.Errorf("transaction not found: %s", txn.ID)
	}
	cp := *txn
	r.txns[txn.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) IncrementRetry(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.txns[id]
	if !ok {
		return nil, nil
	}
	txn.RetryCount++
	txn.UpdatedAt = time.Now().UTC()
	cp := *txn
	return &cp, nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []domain.Transaction
	for _, txn := range r.txns {
		if txn.MerchantID != params.MerchantID {
			continue
		}
		if params.Status != nil && txn.Status != *params.Status {
			continue
		}
		if params.Type != nil && txn.TransactionType != *params.Type {
			continue
		}
		if params.From != nil && txn.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && txn.CreatedAt.After(*params.To) {
			continue
		}
		all = append(all, *txn)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	offset := (params.Page - 1) * params.PageSize
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + params.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *inMemoryTransactionRepo) GetStats(ctx context.Context, merchantID uuid.UUID, from, to *time.Time) (*ports.TransactionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.TransactionStats{
		TotalAmount:      decimal.Zero,
		SuccessfulAmount: decimal.Zero,
	}
	for _, txn := range r.txns {
		if txn.MerchantID != merchantID || txn.TransactionType != domain.TransactionTypePinlessPayment {
			continue
		}
		if from != nil && txn.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && txn.CreatedAt.After(*to) {
			continue
		}
		stats.TotalTransactions++
		if txn.Amount != nil {
			stats.TotalAmount = stats.TotalAmount.Add(*txn.Amount)
		}
		switch txn.Status {
		case domain.TransactionStatusCompleted:
			stats.SuccessfulTransactions++
			if txn.Amount != nil {
				stats.SuccessfulAmount = stats.SuccessfulAmount.Add(*txn.Amount)
			}
		case domain.TransactionStatusFailed:
			stats.FailedTransactions++
		}
	}
	return stats, nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu   sync.RWMutex
	logs []domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *inMemoryAuditRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.AuditLog, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []domain.AuditLog
	for _, l := range r.logs {
		if l.MerchantID != nil && *l.MerchantID == merchantID {
			all = append(all, l)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
