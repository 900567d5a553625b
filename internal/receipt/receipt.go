// Package receipt keeps the append-only audit trail of an auction. Entries are
// hash-chained so that a copy handed to an outside party can be checked with Verify.
package receipt

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reverse-auction/internal/models"
)

var (
	ErrBrokenChain = errors.New("receipt chain broken")
	ErrOutOfOrder  = errors.New("receipt entries out of order")
	ErrStaleDraft  = errors.New("receipt draft is stale")
)

// Subscriber receives entries after they have been durably recorded.
type Subscriber interface {
	Publish(entry models.ReceiptEntry)
}

// Log is the receipt log of one auction. It is not safe for concurrent use.
type Log struct {
	auctionID string
	entries   []models.ReceiptEntry
}

// NewLog returns an empty log for auctionID.
func NewLog(auctionID string) *Log {
	return &Log{auctionID: auctionID}
}

// Restore rebuilds a log from persisted entries after checking their chain.
func Restore(auctionID string, entries []models.ReceiptEntry) (*Log, error) {
	if err := Verify(entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.AuctionID != auctionID {
			return nil, fmt.Errorf("receipt: %w - entry %d belongs to %s", ErrBrokenChain, e.Seq, e.AuctionID)
		}
	}
	return &Log{auctionID: auctionID, entries: append([]models.ReceiptEntry(nil), entries...)}, nil
}

// Draft starts a batch of entries on top of the current log tail.
func (l *Log) Draft() *Draft {
	d := &Draft{auctionID: l.auctionID, base: len(l.entries)}
	if last, ok := l.Last(); ok {
		d.prevHash = last.Hash
		d.lastTS = last.Timestamp
	}
	return d
}

// Commit appends the entries of d. It fails if the log moved since d was drafted.
func (l *Log) Commit(d *Draft) error {
	if d.auctionID != l.auctionID || d.base != len(l.entries) {
		return fmt.Errorf("receipt: %w - drafted at %d, log has %d entries", ErrStaleDraft, d.base, len(l.entries))
	}
	l.entries = append(l.entries, d.entries...)
	return nil
}

// Append records a single entry immediately.
func (l *Log) Append(event models.ReceiptEvent, ts time.Time, details models.ReceiptDetails) models.ReceiptEntry {
	d := l.Draft()
	e := d.Add(event, ts, details)
	_ = l.Commit(d)
	return e
}

// Entries returns a copy of all entries in order.
func (l *Log) Entries() []models.ReceiptEntry {
	return append([]models.ReceiptEntry(nil), l.entries...)
}

// View returns the current entries without copying. Callers must not modify it;
// later appends never touch the returned range.
func (l *Log) View() []models.ReceiptEntry {
	return l.entries[:len(l.entries):len(l.entries)]
}

// Len is the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Last returns the most recent entry.
func (l *Log) Last() (models.ReceiptEntry, bool) {
	if len(l.entries) == 0 {
		return models.ReceiptEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Draft is a pending batch of entries, not yet visible in the log.
type Draft struct {
	auctionID string
	base      int
	prevHash  string
	lastTS    time.Time
	entries   []models.ReceiptEntry
}

// Add prepares the next entry. Timestamps earlier than the tail are raised to it
// so entries stay time-ordered.
func (d *Draft) Add(event models.ReceiptEvent, ts time.Time, details models.ReceiptDetails) models.ReceiptEntry {
	ts = ts.UTC()
	if ts.Before(d.lastTS) {
		ts = d.lastTS
	}
	e := models.ReceiptEntry{
		AuctionID: d.auctionID,
		Seq:       int64(d.base + len(d.entries) + 1),
		Event:     event,
		Timestamp: ts,
		Details:   details,
		PrevHash:  d.prevHash,
	}
	e.Hash = Hash(e)

	d.entries = append(d.entries, e)
	d.prevHash = e.Hash
	d.lastTS = ts
	return e
}

// NextSeq is the sequence number the next Add will receive.
func (d *Draft) NextSeq() int64 { return int64(d.base + len(d.entries) + 1) }

// Entries returns the pending entries.
func (d *Draft) Entries() []models.ReceiptEntry {
	return append([]models.ReceiptEntry(nil), d.entries...)
}

// Hash computes the chained digest of e, ignoring e.Hash itself.
//
// Formula: SHA256(auction_id|seq|event|unix_nanos|details_json|prev_hash)
func Hash(e models.ReceiptEntry) string {
	details, err := json.Marshal(e.Details)
	if err != nil {
		details = []byte("{}")
	}
	data := fmt.Sprintf("%s|%d|%s|%d|%s|%s", e.AuctionID, e.Seq, e.Event, e.Timestamp.UnixNano(), details, e.PrevHash)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}

// Verify checks sequence numbers, timestamps and the hash chain of entries.
func Verify(entries []models.ReceiptEntry) error {
	prevHash := ""
	var prevTS time.Time
	for i, e := range entries {
		if e.Seq != int64(i+1) {
			return fmt.Errorf("receipt: %w - position %d has seq %d", ErrOutOfOrder, i, e.Seq)
		}
		if i > 0 {
			if e.AuctionID != entries[0].AuctionID {
				return fmt.Errorf("receipt: %w - seq %d belongs to %s", ErrBrokenChain, e.Seq, e.AuctionID)
			}
			if e.Timestamp.Before(prevTS) {
				return fmt.Errorf("receipt: %w - seq %d is earlier than its predecessor", ErrOutOfOrder, e.Seq)
			}
		}
		if e.PrevHash != prevHash {
			return fmt.Errorf("receipt: %w - seq %d does not link to its predecessor", ErrBrokenChain, e.Seq)
		}
		if Hash(e) != e.Hash {
			return fmt.Errorf("receipt: %w - seq %d hash mismatch", ErrBrokenChain, e.Seq)
		}
		prevHash = e.Hash
		prevTS = e.Timestamp
	}
	return nil
}
