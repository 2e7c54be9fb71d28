package helpers

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	orderIDPrefix = "ORD"
	suffixLength  = 6
	idAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// largest multiple of len(idAlphabet) that fits a byte
	acceptBelow = 252
)

// NewParentOrderID returns ORD<unix millis><6 uppercase alphanumerics>.
// A nil reader uses crypto/rand.
func NewParentOrderID(now time.Time, random io.Reader) (string, error) {
	if random == nil {
		random = rand.Reader
	}
	suffix := make([]byte, 0, suffixLength)
	buf := make([]byte, suffixLength*2)
	for len(suffix) < suffixLength {
		if _, err := io.ReadFull(random, buf); err != nil {
			return "", fmt.Errorf("read order id entropy: %w", err)
		}
		for _, b := range buf {
			if b >= acceptBelow {
				continue
			}
			suffix = append(suffix, idAlphabet[int(b)%len(idAlphabet)])
			if len(suffix) == suffixLength {
				break
			}
		}
	}
	return orderIDPrefix + strconv.FormatInt(now.UnixMilli(), 10) + string(suffix), nil
}

// ParentOrderID prefers the id the payment gateway already issued.
func ParentOrderID(gatewayOrderID string, now time.Time, random io.Reader) (string, error) {
	if id := strings.TrimSpace(gatewayOrderID); id != "" {
		return id, nil
	}
	return NewParentOrderID(now, random)
}

// ChildOrderID is the parent id for a single-line cart, otherwise <parent>-<index+1>.
func ChildOrderID(parentID string, index, lineCount int) string {
	if lineCount <= 1 {
		return parentID
	}
	return fmt.Sprintf("%s-%d", parentID, index+1)
}
