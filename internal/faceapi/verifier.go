package faceapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/balkashynov/attendr/internal/geo"
)

var ErrIdentityMismatch = errors.New("face does not match the signed-in user")

// Verifier gates a clock action on being inside the fence and showing the right face.
type Verifier struct {
	Fence   geo.Fence
	Scanner *Scanner
	Timeout time.Duration
	now     func() time.Time
}

func NewVerifier(fence geo.Fence, scanner *Scanner, timeout time.Duration) *Verifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Verifier{Fence: fence, Scanner: scanner, Timeout: timeout, now: time.Now}
}

// Verify checks p against the fence, then scans until a face is identified and compares it
// with expected (case-insensitively).
func (v *Verifier) Verify(ctx context.Context, expected string, p geo.Point) (Detection, error) {
	if err := v.Fence.Require(p); err != nil {
		return Detection{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, v.Timeout)
	defer cancel()
	d, err := v.Scanner.WaitForIdentity(ctx, v.now())
	if err != nil {
		return Detection{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(d.Identity()), strings.TrimSpace(expected)) {
		return d, fmt.Errorf("%w: saw %q", ErrIdentityMismatch, d.Identity())
	}
	return d, nil
}
