package layout

import (
	"testing"
	"time"
)

func TestLock_UnlockAllowsReacquisition(t *testing.T) {
	scope := ProjectScope(t.TempDir())

	l, err := Lock(scope)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatal(err)
	}

	l2, err := Lock(scope)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Unlock()
}

func TestLock_BlocksConcurrentAcquisition(t *testing.T) {
	scope := ProjectScope(t.TempDir())

	l, err := Lock(scope)
	if err != nil {
		t.Fatal(err)
	}

	acquired := make(chan struct{})
	go func() {
		l2, err := Lock(scope)
		if err != nil {
			return
		}
		close(acquired)
		l2.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired before first Unlock")
	case <-time.After(100 * time.Millisecond):
	}

	if err := l.Unlock(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second Lock never acquired after Unlock")
	}
}
