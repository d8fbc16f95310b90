package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordUpsertBatch(t *testing.T) {
	successBefore := testutil.ToFloat64(UpsertBatchesTotal.WithLabelValues("success"))
	failedBefore := testutil.ToFloat64(UpsertBatchesTotal.WithLabelValues("error"))
	recordsBefore := testutil.ToFloat64(RecordsUpserted)

	RecordUpsertBatch("success", 1000)
	RecordUpsertBatch("error", 500)

	assert.Equal(t, successBefore+1, testutil.ToFloat64(UpsertBatchesTotal.WithLabelValues("success")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(UpsertBatchesTotal.WithLabelValues("error")))
	assert.Equal(t, recordsBefore+1000, testutil.ToFloat64(RecordsUpserted),
		"Failed batches should not count as upserted records")
}

func TestRecordSync(t *testing.T) {
	before := testutil.ToFloat64(SyncOperationsTotal.WithLabelValues("success"))

	RecordSync("success", 572, 1.5)

	assert.Equal(t, before+1, testutil.ToFloat64(SyncOperationsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(572), testutil.ToFloat64(PlayersFetched))
	assert.Greater(t, testutil.ToFloat64(LastSuccessfulSync), float64(0))
}

func TestRecordAPICall(t *testing.T) {
	before := testutil.ToFloat64(APICallsTotal.WithLabelValues("leaguedashplayerstats", "200"))

	RecordAPICall("leaguedashplayerstats", "200", 0.25)

	assert.Equal(t, before+1, testutil.ToFloat64(APICallsTotal.WithLabelValues("leaguedashplayerstats", "200")))
}
