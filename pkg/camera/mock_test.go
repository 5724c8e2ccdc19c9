package camera

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"
)

func TestMockSource_ReadyOnStart(t *testing.T) {
	m := NewMockSource(image.Pt(64, 48), nil)

	select {
	case <-m.Ready():
		t.Fatal("should not be ready before Start")
	default:
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	select {
	case <-m.Ready():
	default:
		t.Fatal("should be ready after Start")
	}
}

func TestMockSource_ManualReady(t *testing.T) {
	m := NewMockSource(image.Pt(64, 48), nil, WithManualReady())
	m.Start(context.Background())
	defer m.Stop()

	select {
	case <-m.Ready():
		t.Fatal("should wait for MarkReady")
	default:
	}

	m.MarkReady()
	m.MarkReady() // idempotent
	<-m.Ready()
}

func TestMockSource_Emit(t *testing.T) {
	m := NewMockSource(image.Pt(64, 48), nil)
	m.Start(context.Background())

	got := make(chan Frame, 1)
	go func() { got <- <-m.Frames() }()

	if !m.Emit(nil) {
		t.Fatal("Emit should deliver")
	}
	f := <-got
	if f.Size() != image.Pt(64, 48) {
		t.Errorf("frame size = %v", f.Size())
	}
	if f.Seq != 1 {
		t.Errorf("seq = %d, want 1", f.Seq)
	}

	m.Stop()
	select {
	case <-m.Stopped():
	default:
		t.Error("Stopped should be closed after Stop")
	}
	if m.Emit(nil) {
		t.Error("Emit after Stop should not deliver")
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("restart = %v, want ErrClosed", err)
	}
}

func TestMockSource_Interval(t *testing.T) {
	m := NewMockSource(image.Pt(8, 8), nil, WithInterval(5*time.Millisecond))
	m.Start(context.Background())
	defer m.Stop()

	select {
	case <-m.Frames():
	case <-time.After(2 * time.Second):
		t.Fatal("no generated frame")
	}
}

func TestMockSource_DisplaySize(t *testing.T) {
	m := NewMockSource(image.Pt(64, 48), nil)
	m.SetDisplaySize(image.Pt(128, 96))
	if got := m.DisplaySize(); got != image.Pt(128, 96) {
		t.Errorf("DisplaySize() = %v", got)
	}
}

func TestCapture_LifecycleWithoutDevice(t *testing.T) {
	c := NewCapture(DefaultConfig(), nil)

	if got := c.DisplaySize(); got != image.Pt(640, 480) {
		t.Errorf("DisplaySize() before frames = %v", got)
	}
	if err := c.Stop(); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Stop = %v, want ErrClosed", err)
	}
	if _, ok := <-c.Frames(); ok {
		t.Error("frames channel should be closed")
	}
}
