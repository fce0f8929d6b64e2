package kernel

import "testing"

func TestCriticalSectionInProgress(t *testing.T) {
	var c criticalSection

	if c.inProgress() {
		t.Fatal("inProgress() should be false before enter")
	}

	c.enter()
	if !c.inProgress() {
		t.Error("inProgress() should be true while entered")
	}

	c.exit()
	if c.inProgress() {
		t.Error("inProgress() should be false after exit")
	}
}

func TestCriticalSectionSerializesEntry(t *testing.T) {
	var c criticalSection

	c.enter()

	entered := make(chan struct{})
	go func() {
		c.enter()
		close(entered)
		c.exit()
	}()

	select {
	case <-entered:
		t.Fatal("second enter succeeded while the section was held")
	default:
	}

	c.exit()

	<-entered
}
