package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopIsSafe(t *testing.T) {
	o := NewNoop()
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "retrieve-financial-data", "success")
		o.RecordJobDuration(context.Background(), "retrieve-financial-data", time.Second, "success")
		o.RecordSourceHit(context.Background(), "Web Scraping", false)
		o.Shutdown()
	})

	var nilObs *Observability
	assert.NotPanics(t, func() { nilObs.RecordJobProcessed(context.Background(), "x", "y") })
}

func TestNew_RecordsWithoutPanicking(t *testing.T) {
	o := New("findata-test")
	defer o.Shutdown()

	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "retrieve-financial-data", "success")
		o.RecordJobDuration(context.Background(), "retrieve-financial-data", 120*time.Millisecond, "success")
		o.RecordSourceHit(context.Background(), "Search API", true)
	})
}
