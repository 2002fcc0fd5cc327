package api_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongwang/deductible-server/internal/api/testutils"
	"github.com/rongwang/deductible-server/internal/models"
)

func TestConcurrentDonationEdits(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	donation := createDonation(t, testCtx, testCtx.TestUserJWT, models.CreateDonationRequest{
		Date: "2024-02-02", CharityName: "Concurrent Charity", Amount: amount(1),
	})
	path := "/api/donations/" + donation.ID

	// Every device made its edit after the create and before any of them
	// synced. Once one push lands, the server's stamp is newer than the rest.
	t.Run("SameEditFromManyDevices", func(t *testing.T) {
		const writers = 10
		time.Sleep(2 * time.Millisecond)
		stamp := clientStamp(0)
		time.Sleep(2 * time.Millisecond)

		codes := make(chan int, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				w := testutils.PerformRequest(testCtx.Router, http.MethodPut, path,
					models.UpdateDonationRequest{Amount: amount(float64(100 + i)), UpdatedAt: stamp},
					testutils.AuthHeaders(testCtx.TestUserJWT))
				codes <- w.Code
			}(i)
		}
		wg.Wait()
		close(codes)

		counts := map[int]int{}
		for code := range codes {
			counts[code]++
		}
		assert.Equal(t, 1, counts[http.StatusOK])
		assert.Equal(t, writers-1, counts[http.StatusConflict])

		w := testutils.PerformRequest(testCtx.Router, http.MethodGet, path+"/revisions", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
		var revisions models.RevisionListResponse
		testutils.Decode(t, w, &revisions)
		assert.Len(t, revisions.Revisions, 2)
	})

	t.Run("UnconditionalWritersAllLand", func(t *testing.T) {
		const writers = 8
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := testutils.PerformRequest(testCtx.Router, http.MethodPut, path,
					models.UpdateDonationRequest{Notes: models.StringPtr("bulk")},
					testutils.AuthHeaders(testCtx.TestUserJWT))
				assert.Equal(t, http.StatusOK, w.Code)
			}()
		}
		wg.Wait()

		w := testutils.PerformRequest(testCtx.Router, http.MethodGet, path+"/revisions", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
		var revisions models.RevisionListResponse
		testutils.Decode(t, w, &revisions)
		require.Len(t, revisions.Revisions, 2+writers)

		// Each revision's snapshot chain is ordered
		var last string
		for _, rev := range revisions.Revisions[1:] {
			next, err := rev.New()
			require.NoError(t, err)
			stamp := next["updated_at"].(string)
			assert.Greater(t, stamp, last)
			last = stamp
		}
	})
}
