package task

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustResult(t *testing.T, id uuid.UUID, data any) Result {
	t.Helper()
	r, err := NewResult(id, data)
	require.NoError(t, err)
	return r
}

func waiterCount(c *Correlator, id uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.entries[id]; ok {
		return p.waiters
	}
	return 0
}

func TestCorrelatorPostBeforeWait(t *testing.T) {
	c := NewCorrelator(setupTestLogger())
	id := uuid.New()

	c.Post(mustResult(t, id, map[string]int{"jobs": 3}))
	assert.Equal(t, 1, c.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := c.Wait(ctx, id)
	require.NoError(t, err)

	var data map[string]int
	require.NoError(t, got.Decode(&data))
	assert.Equal(t, 3, data["jobs"])
	assert.Equal(t, 0, c.Pending(), "result is evicted after retrieval")
}

func TestCorrelatorWaitBeforePost(t *testing.T) {
	c := NewCorrelator(setupTestLogger())
	id := uuid.New()

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := c.Wait(context.Background(), id)
		done <- outcome{r, err}
	}()

	require.Eventually(t, func() bool { return waiterCount(c, id) == 1 }, time.Second, time.Millisecond)

	c.Post(mustResult(t, id, map[string]int{"jobs": 3}))

	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.Equal(t, id, out.result.ID)
		assert.JSONEq(t, `{"jobs":3}`, string(out.result.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was not woken")
	}
	assert.Equal(t, 0, c.Pending())
}

func TestCorrelatorOrderingYieldsSameResult(t *testing.T) {
	payload := map[string]string{"status": "success"}

	before := NewCorrelator(setupTestLogger())
	idBefore := uuid.New()
	before.Post(mustResult(t, idBefore, payload))
	resBefore, err := before.Wait(context.Background(), idBefore)
	require.NoError(t, err)

	after := NewCorrelator(setupTestLogger())
	idAfter := uuid.New()
	go func() {
		assert.Eventually(t, func() bool { return waiterCount(after, idAfter) == 1 }, time.Second, time.Millisecond)
		r, err := NewResult(idAfter, payload)
		if assert.NoError(t, err) {
			after.Post(r)
		}
	}()
	resAfter, err := after.Wait(context.Background(), idAfter)
	require.NoError(t, err)

	assert.JSONEq(t, string(resBefore.Data), string(resAfter.Data))
}

func TestCorrelatorWaitHonoursContext(t *testing.T) {
	c := NewCorrelator(setupTestLogger())
	id := uuid.New()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Wait(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, c.Pending(), "abandoned wait leaves nothing behind")
}

func TestCorrelatorSecondWaiterGetsNotFound(t *testing.T) {
	c := NewCorrelator(setupTestLogger())
	id := uuid.New()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := c.Wait(context.Background(), id)
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return waiterCount(c, id) == 2 }, time.Second, time.Millisecond)

	c.Post(mustResult(t, id, "done"))

	var succeeded, notFound int
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrResultNotFound)
				notFound++
			}
		case <-time.After(5 * time.Second):
			t.Fatal("waiters were not woken")
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, notFound)
}

func TestCorrelatorRepostReplacesData(t *testing.T) {
	c := NewCorrelator(setupTestLogger())
	id := uuid.New()

	c.Post(mustResult(t, id, "first"))
	c.Post(mustResult(t, id, "second"))

	got, err := c.Wait(context.Background(), id)
	require.NoError(t, err)
	var s string
	require.NoError(t, got.Decode(&s))
	assert.Equal(t, "second", s)
}

func TestCorrelatorExpire(t *testing.T) {
	c := NewCorrelator(setupTestLogger())
	c.Post(mustResult(t, uuid.New(), "stale"))

	assert.Equal(t, 0, c.Expire(time.Hour))
	assert.Equal(t, 1, c.Pending())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, c.Expire(time.Millisecond))
	assert.Equal(t, 0, c.Pending())
}

func TestResultHandlerPostsToCorrelator(t *testing.T) {
	c := NewCorrelator(setupTestLogger())
	target := uuid.New()

	task, err := New(TypeResult, ResultPayload{TaskID: target, Data: json.RawMessage(`{"ok":true}`)})
	require.NoError(t, err)

	bad := &Task{ID: uuid.New(), Type: TypeResult, Payload: json.RawMessage(`not json`)}

	err = ResultHandler(c).HandleTasks(context.Background(), []*Task{task, bad})
	assert.Error(t, err, "malformed payloads are reported")

	got, err := c.Wait(context.Background(), target)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(got.Data))
}

func TestLogHandler(t *testing.T) {
	task, err := New(TypeLog, LogEntry{Level: "WARN", Message: "scrape failed", Attrs: map[string]any{"source": "x"}})
	require.NoError(t, err)

	err = LogHandler(setupTestLogger()).HandleTasks(context.Background(), []*Task{task})
	assert.NoError(t, err)
}
