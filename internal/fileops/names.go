package fileops

import (
	"context"
	"fmt"
	"time"
)

// nameRetryDelay separates successive identifier attempts.
const nameRetryDelay = 10 * time.Millisecond

// now is swapped in tests.
var now = time.Now

// UniqID renders t as 8 hex digits of Unix seconds followed by 5 hex digits
// of the microsecond within that second, the identifier format the catalog
// uses for image files.
func UniqID(t time.Time) string {
	return fmt.Sprintf("%08x%05x", t.Unix(), t.Nanosecond()/1000)
}

// PairNames returns two distinct image names carrying ext (".jpg").
// The second identifier is retried until the clock moves on.
func PairNames(ctx context.Context, ext string) (string, string, error) {
	first := UniqID(now())
	second := first
	for second == first {
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(nameRetryDelay):
		}
		second = UniqID(now())
	}
	return first + ext, second + ext, nil
}
