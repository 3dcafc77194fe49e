package sync

import "testing"

func TestLockTypesZeroValue(t *testing.T) {
	var mu Mutex
	var rw RWMutex
	var wg WaitGroup
	var once Once

	count := 0
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			mu.Lock()
			count++
			mu.Unlock()
			once.Do(func() {
				rw.Lock()
				rw.Unlock()
			})
		}()
	}
	wg.Wait()

	rw.RLock()
	defer rw.RUnlock()
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
