package idgen

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	TemplatePrefix  = "tpl"
	QuadChartPrefix = "qc"
	EventPrefix     = "qce"
)

var (
	entropyMu   sync.Mutex
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// NewULID returns a lower-cased ULID string. Safe for concurrent use.
func NewULID() string {
	return NewULIDAt(time.Now())
}

// NewULIDAt returns a lower-cased ULID stamped with t.
func NewULIDAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(t), newEntropy())
	return strings.ToLower(id.String())
}

// New returns a "<prefix>_<ulid>" identifier.
func New(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, NewULID())
}

// IsValid reports whether value is a "<prefix>_<ulid>" identifier.
func IsValid(prefix, value string) bool {
	_, err := Parse(prefix, value)
	return err == nil
}

// Parse strips the prefix and returns the ULID.
func Parse(prefix, value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(strings.ToLower(value), prefix+"_") {
		return ulid.ULID{}, fmt.Errorf("identifier %q missing %s_ prefix", value, prefix)
	}
	return ulid.ParseStrict(strings.ToUpper(value[len(prefix)+1:]))
}
