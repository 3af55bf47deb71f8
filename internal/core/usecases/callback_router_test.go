package usecases_test

import (
	"testing"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/core/usecases"
)

func TestCallbackRouter_DeliversThroughExecutor(t *testing.T) {
	exec := &countingExecutor{}
	router := usecases.NewCallbackRouter(exec)
	a, b := newRecordingObserver(), newRecordingObserver()
	router.Register(a)
	unregister := router.Register(b)

	router.CellSubmitted(domain.SubmitResult{RequestID: "1", Status: domain.StatusOK})
	if exec.posts.Load() != 1 {
		t.Errorf("expected delivery via executor, got %d posts", exec.posts.Load())
	}
	if r := receive(t, a.submits); r.RequestID != "1" {
		t.Errorf("unexpected result %+v", r)
	}
	receive(t, b.submits)

	unregister()
	router.AreaQueried(domain.AreaQueryResult{RequestID: "2", Status: domain.StatusNotOK})
	if r := receive(t, a.areas); r.RequestID != "2" {
		t.Errorf("unexpected result %+v", r)
	}
	if len(b.areas) != 0 {
		t.Error("unregistered observer still notified")
	}
}
