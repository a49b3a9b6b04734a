package basket

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultTTL    = 60 * time.Minute
	codeAttempts  = 5
	codeRangeLow  = 10000
	codeRangeSize = 90000
)

var (
	ErrCodeSpaceExhausted = errors.New("could not allocate a free basket code")
	codeRe                = regexp.MustCompile(`^SG-\d{5}$`)
)

// NewCode returns a till-friendly code SG-10000..SG-99999 from crypto/rand.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRangeSize))
	if err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return fmt.Sprintf("SG-%d", codeRangeLow+n.Int64()), nil
}

// NormalizeCode upper-cases and trims a code typed at the till; ok is false when it cannot be a code.
func NormalizeCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return code, codeRe.MatchString(code)
}

type Service struct {
	Store   Store
	TTL     time.Duration
	Now     func() time.Time
	NewCode func() (string, error)
}

func (s Service) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultTTL
	}
	return s.TTL
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create validates items and parks them under a fresh code.
func (s Service) Create(ctx context.Context, items []Item) (Basket, error) {
	items, err := NormalizeItems(items)
	if err != nil {
		return Basket{}, err
	}

	gen := s.NewCode
	if gen == nil {
		gen = NewCode
	}

	now := s.now().UTC()
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := gen()
		if err != nil {
			return Basket{}, err
		}
		b := Basket{Code: code, Items: items, CreatedAt: now, ExpiresAt: now.Add(s.ttl())}
		ok, err := s.Store.PutIfAbsent(ctx, code, b, s.ttl())
		if err != nil {
			return Basket{}, fmt.Errorf("store basket: %w", err)
		}
		if ok {
			basketsCreated.Inc()
			return b, nil
		}
	}
	return Basket{}, ErrCodeSpaceExhausted
}

func (s Service) Get(ctx context.Context, code string) (Basket, error) {
	code, ok := NormalizeCode(code)
	if !ok {
		basketLookups.WithLabelValues("invalid").Inc()
		return Basket{}, ErrNotFound
	}
	b, err := s.Store.Get(ctx, code)
	switch {
	case errors.Is(err, ErrNotFound):
		basketLookups.WithLabelValues("missing").Inc()
	case err != nil:
		basketLookups.WithLabelValues("error").Inc()
	default:
		basketLookups.WithLabelValues("found").Inc()
	}
	return b, err
}

// Close removes a basket once it has been turned into an order.
func (s Service) Close(ctx context.Context, code string) error {
	code, ok := NormalizeCode(code)
	if !ok {
		return ErrNotFound
	}
	return s.Store.Delete(ctx, code)
}
