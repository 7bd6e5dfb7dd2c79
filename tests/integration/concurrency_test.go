package integration

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrent_ChargesSameOrderID fires 20 concurrent charges carrying the
// same merchant_order_id. The transactional insert guarantees exactly one
// provider debit; every caller gets the same transaction back.
func TestConcurrent_ChargesSameOrderID(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	apiKey := app.createMerchant(t, "Race Shop")
	linkID := app.linkWallet(t, apiKey, "03001234567", "RACE-LINK-1")

	concurrency := 20
	body := fmt.Sprintf(`{"wallet_link_id":%q,"merchant_order_id":"RACE-ORDER-1","amount":75.00}`, linkID)

	var wg sync.WaitGroup
	var successCount atomic.Int64
	txIDs := make([]string, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			status, envelope, _ := app.do(t, http.MethodPost, "/api/v2/providers/easypaisa/payments", apiKey, body)
			if status == http.StatusCreated {
				successCount.Add(1)
				txIDs[idx], _ = dataField(t, envelope, "id").(string)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, concurrency, successCount.Load(), "every caller should get the recorded transaction")

	uniqueIDs := make(map[string]struct{})
	for _, id := range txIDs {
		if id != "" {
			uniqueIDs[id] = struct{}{}
		}
	}
	assert.Len(t, uniqueIDs, 1, "one merchant_order_id maps to exactly one transaction")
	assert.EqualValues(t, 1, app.provider.chargeCalls.Load(), "the wallet must be debited exactly once")
}

// TestConcurrent_ConfirmSingleActiveWins races two confirmations for the
// same mobile number. Only one link may end up ACTIVE; the loser surfaces a
// conflict instead of silently producing a second active link.
func TestConcurrent_ConfirmSingleActiveWins(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	apiKey := app.createMerchant(t, "Confirm Race Shop")

	// Two pending links for the same wallet are allowed until one activates.
	var linkIDs [2]string
	for i := range linkIDs {
		status, envelope, _ := app.do(t, http.MethodPost, "/api/v2/providers/easypaisa/wallet/otp", apiKey,
			fmt.Sprintf(`{"mobile_number":"03001234567","order_id":"CR-LINK-%d"}`, i))
		require.Equal(t, http.StatusCreated, status)
		linkIDs[i], _ = dataField(t, envelope, "id").(string)
		require.NotEmpty(t, linkIDs[i])
	}

	var wg sync.WaitGroup
	var activeCount, conflictCount atomic.Int64

	for i, linkID := range linkIDs {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()
			status, envelope, _ := app.do(t, http.MethodPost, "/api/v2/providers/easypaisa/wallet/links/"+id+"/confirm", apiKey,
				fmt.Sprintf(`{"order_id":"CR-LINK-%d","otp":"123456","amount":1.00}`, idx))
			switch status {
			case http.StatusOK:
				activeCount.Add(1)
			case http.StatusConflict:
				if envelope["error_code"] == "CON_001" {
					conflictCount.Add(1)
				}
			}
		}(i, linkID)
	}
	wg.Wait()

	assert.EqualValues(t, 1, activeCount.Load(), "exactly one confirmation may activate")
	assert.EqualValues(t, 1, conflictCount.Load(), "the racing confirmation must surface a conflict")
}

// TestConcurrent_DistinctOrdersAllDebit is the control case: distinct
// merchant_order_ids must each reach the provider.
func TestConcurrent_DistinctOrdersAllDebit(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	apiKey := app.createMerchant(t, "Throughput Shop")
	linkID := app.linkWallet(t, apiKey, "03001234567", "TP-LINK-1")

	concurrency := 10
	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"wallet_link_id":%q,"merchant_order_id":"TP-ORDER-%d","amount":10.00}`, linkID, idx)
			status, _, _ := app.do(t, http.MethodPost, "/api/v2/providers/easypaisa/payments", apiKey, body)
			if status == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, concurrency, successCount.Load())
	assert.EqualValues(t, concurrency, app.provider.chargeCalls.Load())
}
