package faceapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/balkashynov/attendr/internal/faceapi/faceapitest"
	"github.com/balkashynov/attendr/internal/logging"
)

func TestWaitForIdentity(t *testing.T) {
	srv := faceapitest.NewServer("Asha")
	defer srv.Close()
	scanner := NewScanner(NewClient(srv.URL, logging.Discard()), 5*time.Millisecond, logging.Discard())

	since := time.Now().Add(-time.Second)
	srv.Identify("Asha", StatusMarked, time.Now(), 3)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d, err := scanner.WaitForIdentity(ctx, since)
	if err != nil {
		t.Fatalf("WaitForIdentity() failed: %v", err)
	}
	if d.Identity() != "Asha" || d.Status != StatusMarked {
		t.Fatalf("unexpected detection %+v", d)
	}
	if srv.Active() {
		t.Fatalf("scanner left running")
	}
	if starts, stops := srv.Counts(); starts != 1 || stops != 1 {
		t.Fatalf("starts=%d stops=%d", starts, stops)
	}
}

func TestWaitForIdentityIgnoresStaleDetections(t *testing.T) {
	srv := faceapitest.NewServer("Asha")
	defer srv.Close()
	scanner := NewScanner(NewClient(srv.URL, logging.Discard()), 5*time.Millisecond, logging.Discard())

	since := time.Now()
	srv.Identify("Asha", StatusAlreadyPresent, since.Add(-time.Minute), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if _, err := scanner.WaitForIdentity(ctx, since); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("WaitForIdentity() err = %v, want ErrNoIdentity", err)
	}
	if srv.Active() {
		t.Fatalf("scanner left running after timeout")
	}
}

func TestWaitForIdentityStopsOnRejection(t *testing.T) {
	srv := faceapitest.NewServer("Asha")
	defer srv.Close()
	srv.FailStatus(400)
	scanner := NewScanner(NewClient(srv.URL, logging.Discard()), 5*time.Millisecond, logging.Discard())

	_, err := scanner.WaitForIdentity(context.Background(), time.Now())
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("WaitForIdentity() err = %v, want ErrRejected", err)
	}
	if srv.Active() {
		t.Fatalf("scanner left running after rejection")
	}
}

func TestWaitForIdentityCancelled(t *testing.T) {
	srv := faceapitest.NewServer("Asha")
	defer srv.Close()
	scanner := NewScanner(NewClient(srv.URL, logging.Discard()), 5*time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if _, err := scanner.WaitForIdentity(ctx, time.Now()); !errors.Is(err, context.Canceled) {
		t.Fatalf("WaitForIdentity() err = %v, want context.Canceled", err)
	}
}
