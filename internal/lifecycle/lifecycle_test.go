package lifecycle

import (
	"sync"
	"testing"
)

func TestShuttingDown_Toggle(t *testing.T) {
	defer SetShuttingDown(false)

	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true, want false")
	}
	SetShuttingDown(true)
	if !IsShuttingDown() {
		t.Error("IsShuttingDown() = false after SetShuttingDown(true), want true")
	}
	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true after SetShuttingDown(false), want false")
	}
}

func TestShuttingDown_ConcurrentReaders(t *testing.T) {
	defer SetShuttingDown(false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = IsShuttingDown()
			}
		}()
	}
	SetShuttingDown(true)
	wg.Wait()
	if !IsShuttingDown() {
		t.Error("IsShuttingDown() = false, want true")
	}
}
