package worldstage

import (
	"testing"

	"pkg.world.dev/arena/assert"
)

func TestNewManagerStartsInInit(t *testing.T) {
	stage := NewManager()
	assert.Equal(t, Init, stage.Current())

	gotStage := stage.Swap(ShutDown)
	assert.Equal(t, Init, gotStage)
	assert.Equal(t, ShutDown, stage.Current())
}

func TestCompareAndSwap(t *testing.T) {
	stage := NewManager()
	ok := stage.CompareAndSwap(Ready, Running)
	assert.Check(t, !ok, "world has not been loaded yet")

	ok = stage.CompareAndSwap(Init, Loading)
	assert.Check(t, ok, "compare and swap should succeed with correct old value")
	assert.Equal(t, Loading, stage.Current())
}

func TestOnlyOneCompareAndSwapSuccess(t *testing.T) {
	successCh := make(chan bool)
	stage := NewManager()

	for i := 0; i < 10; i++ {
		go func() {
			successCh <- stage.CompareAndSwap(Init, ShutDown)
		}()
	}

	successCount := 0
	for i := 0; i < 10; i++ {
		if <-successCh {
			successCount++
		}
	}
	assert.Equal(t, 1, successCount)
}

func TestAcceptingOperations(t *testing.T) {
	testCases := []struct {
		stage     Stage
		accepting bool
		running   bool
	}{
		{stage: Init},
		{stage: Loading},
		{stage: Ready, accepting: true},
		{stage: Running, accepting: true, running: true},
		{stage: ShuttingDown},
		{stage: ShutDown},
	}

	for _, tc := range testCases {
		t.Run(string(tc.stage), func(t *testing.T) {
			m := NewManager()
			m.Store(tc.stage)
			assert.Equal(t, tc.accepting, m.IsAcceptingOperations())
			assert.Equal(t, tc.running, m.IsRunning())
		})
	}
}
