package orders

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/speps/go-hashids/v2"
)

const (
	orderNumberPrefix   = "AK-"
	orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	orderNumberSeqSpan  = 1 << 16
)

// NumberGenerator produces short customer-facing order numbers such as
// AK-7Q2MXP9R from the user id, the creation millisecond and a rolling
// sequence. The sequence starts at a random offset so replicas diverge.
type NumberGenerator struct {
	h   *hashids.HashID
	seq atomic.Uint64
	now func() time.Time
}

func NewNumberGenerator(salt string) (*NumberGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = orderNumberAlphabet

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("order numbers: %w", err)
	}
	g := &NumberGenerator{h: h, now: time.Now}
	g.seq.Store(rand.Uint64N(orderNumberSeqSpan))
	return g, nil
}

// Generate never repeats for the same user within one process, even when
// called twice in the same millisecond.
func (g *NumberGenerator) Generate(userID int64) (string, error) {
	seq := int64(g.seq.Add(1) % orderNumberSeqSpan)
	id, err := g.h.EncodeInt64([]int64{userID, g.now().UnixMilli(), seq})
	if err != nil {
		return "", fmt.Errorf("encode order number: %w", err)
	}
	return orderNumberPrefix + id, nil
}
