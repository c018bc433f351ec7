package idgen

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Snowflake-style ID generator. 64 bits:
//
//	0 - 41 bit millisecond timestamp - 10 bit worker id - 12 bit sequence
//
// IDs are unique per worker even within a single millisecond (the sequence
// differentiates them, and the generator spins to the next millisecond when
// the sequence wraps). Used for transaction numbers and order references.
const (
	epoch          = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
}

var (
	defaultGenerator *Snowflake
	once             sync.Once
)

// Init sets up the default generator. Each running instance must use a
// distinct workerID to keep IDs globally unique.
func Init(workerID int64) {
	once.Do(func() {
		if workerID < 0 || workerID > maxWorkerID {
			log.Fatalf("workerID must be between 0 and %d", maxWorkerID)
		}
		defaultGenerator = &Snowflake{
			workerID:  workerID,
			timestamp: 0,
			sequence:  0,
		}
	})
}

// NextID draws from the default generator, initializing it with worker id 1
// when Init was never called. Init goes through the sync.Once, so a first use
// from multiple goroutines is safe.
func NextID() int64 {
	Init(1)
	return defaultGenerator.Generate()
}

func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			// sequence exhausted, wait for the next millisecond
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	id := ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence

	return id
}

// GenerateTransactionNo returns a ledger row number.
// Format: TXN + yyyymmddhhmmss + last 8 digits of a snowflake ID.
func GenerateTransactionNo() string {
	id := NextID()
	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("TXN%s%08d", timestamp, id%100000000)
}

// GenerateOrderRef returns the human-readable order label shown to the user
// and passed to the payment gateway UI: order_<unixMilli>_<short user id>.
// It is a display reference only; the order's key is a separate uuid.
func GenerateOrderRef(userID string) string {
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), ShortUserID(userID))
}

// ShortUserID keeps the first 8 characters of a user id for display labels.
func ShortUserID(userID string) string {
	if len(userID) > 8 {
		return userID[:8]
	}
	return userID
}
