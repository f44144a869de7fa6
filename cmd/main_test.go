package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitForShutdown_StopsRecorderAfterHub(t *testing.T) {
	hubDone := make(chan struct{})
	recorderDone := make(chan struct{})
	var stopped atomic.Bool
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	go func() {
		<-recorderCtx.Done()
		close(recorderDone)
	}()

	result := make(chan bool, 1)
	go func() {
		result <- waitForShutdown(context.Background(), hubDone, func() {
			stopped.Store(true)
			stopRecorder()
		}, recorderDone)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, stopped.Load(), "recorder must keep running while the hub is still draining")

	close(hubDone)
	select {
	case ok := <-result:
		assert.True(t, ok)
		assert.True(t, stopped.Load())
	case <-time.After(time.Second):
		t.Fatal("shutdown did not complete")
	}
}

func TestWaitForShutdown_Deadline(t *testing.T) {
	deadline, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var stopped atomic.Bool

	ok := waitForShutdown(deadline, make(chan struct{}), func() { stopped.Store(true) }, make(chan struct{}))

	assert.False(t, ok)
	assert.True(t, stopped.Load(), "recorder is told to stop even when the hub hangs")
}
