package models_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestIDGenerator_Format(t *testing.T) {
	now := time.UnixMilli(1760529600123)
	gen := models.NewIDGenerator(func() time.Time { return now })

	id, createdAt := gen.Next("c1")

	assert.Equal(t, "pay_c1_1760529600123", id)
	assert.Regexp(t, models.PaymentIDPattern, id)
	assert.Equal(t, now, createdAt)
}

func TestIDGenerator_UniqueWithinSameMillisecond(t *testing.T) {
	frozen := time.UnixMilli(1760529600000)
	gen := models.NewIDGenerator(func() time.Time { return frozen })

	first, _ := gen.Next("c1")
	second, _ := gen.Next("c1")
	third, _ := gen.Next("c1")

	assert.Equal(t, "pay_c1_1760529600000", first)
	assert.Equal(t, "pay_c1_1760529600001", second)
	assert.Equal(t, "pay_c1_1760529600002", third)
}

func TestIDGenerator_ClockGoingBackwards(t *testing.T) {
	times := []time.Time{time.UnixMilli(2000), time.UnixMilli(1000)}
	i := 0
	gen := models.NewIDGenerator(func() time.Time {
		t := times[i]
		i++
		return t
	})

	first, _ := gen.Next("c1")
	second, _ := gen.Next("c1")

	assert.Equal(t, "pay_c1_2000", first)
	assert.Equal(t, "pay_c1_2001", second)
}

func TestIDGenerator_ConcurrentCallsNeverCollide(t *testing.T) {
	gen := models.NewIDGenerator(nil)

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				id, _ := gen.Next("c1")
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 2000)
}
