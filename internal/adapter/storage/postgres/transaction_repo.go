package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Amounts are NUMERIC(10,2) in the database, moved over the wire as text so
// no float conversion ever touches them.
const transactionColumns = `id, merchant_id, wallet_link_id, merchant_order_id, provider_order_id,
	transaction_type, amount::text, mobile_number, status,
	provider_response_code, provider_response_message,
	request_payload, response_payload, error_message, retry_count,
	completed_at, created_at, updated_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const insertTransactionSQL = `INSERT INTO transactions (id, merchant_id, wallet_link_id, merchant_order_id, provider_order_id,
	transaction_type, amount, mobile_number, status,
	provider_response_code, provider_response_message,
	request_payload, response_payload, error_message, retry_count,
	completed_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

// CreateInTx inserts a transaction within a database transaction. A
// merchant_order_id collision surfaces as a duplicate-order conflict.
func (r *TransactionRepo) CreateInTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	_, err := tx.Exec(ctx, insertTransactionSQL, transactionArgs(t)...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrDuplicateOrder(t.MerchantOrderID)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts t unless a row with its merchant_order_id already
// exists. The unique index arbitrates concurrent inserts; the loser reads
// back the winner's row.
func (r *TransactionRepo) CreateIfAbsent(ctx context.Context, t *domain.Transaction) (bool, *domain.Transaction, error) {
	query := insertTransactionSQL + ` ON CONFLICT (merchant_order_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, transactionArgs(t)...)
	if err != nil {
		return false, nil, fmt.Errorf("insert transaction: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil, nil
	}

	existing, err := r.GetByMerchantOrderID(ctx, t.MerchantOrderID)
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByMerchantOrderID fetches a transaction by its idempotency key.
func (r *TransactionRepo) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE merchant_order_id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, merchantOrderID))
}

// GetByProviderOrderID fetches a transaction by the provider's order id.
func (r *TransactionRepo) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE provider_order_id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, providerOrderID))
}

// Update persists a transaction's current state.
func (r *TransactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	query := `UPDATE transactions SET
		provider_order_id = $1, status = $2,
		provider_response_code = $3, provider_response_message = $4,
		response_payload = $5, error_message = $6,
		completed_at = $7, updated_at = $8
		WHERE id = $9`

	tag, err := r.pool.Exec(ctx, query,
		t.ProviderOrderID, t.Status,
		t.ProviderResponseCode, t.ProviderResponseMessage,
		t.ResponsePayload, t.ErrorMessage,
		t.CompletedAt, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", t.ID)
	}
	return nil
}

// IncrementRetry bumps retry_count and returns the updated row.
func (r *TransactionRepo) IncrementRetry(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `UPDATE transactions SET retry_count = retry_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + transactionColumns
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// List fetches transactions with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("merchant_id = $%d", argIdx))
	args = append(args, params.MerchantID)
	argIdx++

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT `+transactionColumns+` FROM transactions %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		if err := scanTransactionInto(rows, &t); err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// GetStats retrieves aggregated pinless-payment statistics for a merchant.
func (r *TransactionRepo) GetStats(ctx context.Context, merchantID uuid.UUID, from, to *time.Time) (*ports.TransactionStats, error) {
	var args []any
	argIdx := 1

	condition := fmt.Sprintf("merchant_id = $%d AND transaction_type = 'PINLESS_PAYMENT'", argIdx)
	args = append(args, merchantID)
	argIdx++

	if from != nil {
		condition += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *from)
		argIdx++
	}
	if to != nil {
		condition += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *to)
	}

	query := fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'COMPLETED') AS successful,
		COUNT(*) FILTER (WHERE status = 'FAILED') AS failed,
		COALESCE(SUM(amount), 0)::text AS total_amount,
		COALESCE(SUM(amount) FILTER (WHERE status = 'COMPLETED'), 0)::text AS successful_amount
		FROM transactions WHERE %s`, condition)

	stats := &ports.TransactionStats{}
	var totalAmount, successfulAmount string
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.TotalTransactions, &stats.SuccessfulTransactions, &stats.FailedTransactions,
		&totalAmount, &successfulAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("get transaction stats: %w", err)
	}

	if stats.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
		return nil, fmt.Errorf("parse total amount %q: %w", totalAmount, err)
	}
	if stats.SuccessfulAmount, err = decimal.NewFromString(successfulAmount); err != nil {
		return nil, fmt.Errorf("parse successful amount %q: %w", successfulAmount, err)
	}
	return stats, nil
}

func transactionArgs(t *domain.Transaction) []any {
	var amount *string
	if t.Amount != nil {
		s := t.Amount.StringFixed(2)
		amount = &s
	}
	return []any{
		t.ID, t.MerchantID, t.WalletLinkID, t.MerchantOrderID, t.ProviderOrderID,
		t.TransactionType, amount, t.MobileNumber, t.Status,
		t.ProviderResponseCode, t.ProviderResponseMessage,
		t.RequestPayload, t.ResponsePayload, t.ErrorMessage, t.RetryCount,
		t.CompletedAt, t.CreatedAt, t.UpdatedAt,
	}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	if err := scanTransactionInto(row, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func scanTransactionInto(row pgx.Row, t *domain.Transaction) error {
	var amountStr *string
	err := row.Scan(
		&t.ID, &t.MerchantID, &t.WalletLinkID, &t.MerchantOrderID, &t.ProviderOrderID,
		&t.TransactionType, &amountStr, &t.MobileNumber, &t.Status,
		&t.ProviderResponseCode, &t.ProviderResponseMessage,
		&t.RequestPayload, &t.ResponsePayload, &t.ErrorMessage, &t.RetryCount,
		&t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if amountStr != nil {
		amount, err := decimal.NewFromString(*amountStr)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", *amountStr, err)
		}
		t.Amount = &amount
	}
	return nil
}
