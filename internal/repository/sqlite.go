package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"reverse-auction/internal/auctionerrors"
	model "reverse-auction/internal/models"
)

// SQLiteRepo is a durable AuctionStore and QuoteSource. Every Commit runs in one transaction.
type SQLiteRepo struct {
	conn *sql.DB
}

// NewSQLiteRepo opens the database at path and initializes the schema.
// Use ":memory:" for a throwaway database.
func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	conn.SetMaxOpenConns(1)

	r := &SQLiteRepo{conn: conn}
	if err := r.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return r, nil
}

// Close closes the database connection.
func (r *SQLiteRepo) Close() error {
	return r.conn.Close()
}

func (r *SQLiteRepo) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS auctions (
			id TEXT PRIMARY KEY,
			listing_id TEXT NOT NULL,
			buyer_id TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			rule_kind TEXT NOT NULL,
			rule_value REAL NOT NULL,
			extension_window_ns INTEGER NOT NULL,
			extension_duration_ns INTEGER NOT NULL,
			status TEXT NOT NULL,
			eligible_vendors TEXT NOT NULL,
			extension_count INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			ended_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS participants (
			auction_id TEXT NOT NULL REFERENCES auctions(id),
			vendor_id TEXT NOT NULL,
			best_bid REAL,
			rank INTEGER,
			bid_count INTEGER NOT NULL,
			achieved_at TEXT NOT NULL,
			achieved_seq INTEGER NOT NULL,
			PRIMARY KEY (auction_id, vendor_id)
		)`,
		`CREATE TABLE IF NOT EXISTS bids (
			bid_id TEXT PRIMARY KEY,
			auction_id TEXT NOT NULL REFERENCES auctions(id),
			vendor_id TEXT NOT NULL,
			amount REAL NOT NULL,
			timestamp TEXT NOT NULL,
			seq INTEGER NOT NULL,
			valid INTEGER NOT NULL,
			rejection_reason TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS receipts (
			auction_id TEXT NOT NULL REFERENCES auctions(id),
			seq INTEGER NOT NULL,
			event TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			details TEXT NOT NULL,
			prev_hash TEXT NOT NULL,
			hash TEXT NOT NULL,
			PRIMARY KEY (auction_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS quotes (
			listing_id TEXT NOT NULL,
			vendor_id TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (listing_id, vendor_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_auction_seq ON bids(auction_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_auctions_status ON auctions(status)`,
	}

	for _, query := range queries {
		if _, err := r.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

// CreateAuction stores a new auction together with its created receipt entry
func (r *SQLiteRepo) CreateAuction(ctx context.Context, auction model.Auction, entry model.ReceiptEntry) error {
	if entry.Seq != 1 || entry.AuctionID != auction.ID {
		return fmt.Errorf("sqlite: create auction %s: %w - first receipt entry must have seq 1", auction.ID, auctionerrors.ErrInvalidInput)
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	eligible, err := json.Marshal(auction.EligibleVendors)
	if err != nil {
		return fmt.Errorf("sqlite: encode eligible vendors: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO auctions (
		id, listing_id, buyer_id, start_time, end_time, rule_kind, rule_value,
		extension_window_ns, extension_duration_ns, status, eligible_vendors,
		extension_count, created_at, ended_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		auction.ID, auction.ListingID, auction.BuyerID,
		formatTime(auction.StartTime), formatTime(auction.EndTime),
		string(auction.Rule.Kind), auction.Rule.Value,
		int64(auction.ExtensionWindow), int64(auction.ExtensionDuration),
		string(auction.Status), string(eligible), auction.ExtensionCount,
		formatTime(auction.CreatedAt), formatOptionalTime(auction.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert auction %s: %w", auction.ID, err)
	}
	if err := insertReceipts(ctx, tx, []model.ReceiptEntry{entry}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit create %s: %w", auction.ID, err)
	}
	return nil
}

// Commit applies a mutation in a single transaction
func (r *SQLiteRepo) Commit(ctx context.Context, m Mutation) error {
	a := m.Auction

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var stored int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts WHERE auction_id = ?`, a.ID).Scan(&stored); err != nil {
		return fmt.Errorf("sqlite: count receipts %s: %w", a.ID, err)
	}
	next := stored + 1
	for _, e := range m.Entries {
		if e.AuctionID != a.ID || e.Seq != next {
			return fmt.Errorf("sqlite: commit auction %s: %w - receipt seq %d, expected %d", a.ID, auctionerrors.ErrInvalidInput, e.Seq, next)
		}
		next++
	}

	res, err := tx.ExecContext(ctx, `UPDATE auctions SET
		end_time = ?, status = ?, extension_count = ?, ended_at = ?
		WHERE id = ?`,
		formatTime(a.EndTime), string(a.Status), a.ExtensionCount, formatOptionalTime(a.EndedAt), a.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update auction %s: %w", a.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("sqlite: update auction %s: %w", a.ID, err)
	} else if n == 0 {
		return fmt.Errorf("sqlite: commit auction %s: %w", a.ID, auctionerrors.ErrAuctionNotFound)
	}

	for _, b := range m.Bids {
		_, err := tx.ExecContext(ctx, `INSERT INTO bids (
			bid_id, auction_id, vendor_id, amount, timestamp, seq, valid, rejection_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.BidID, b.AuctionID, b.VendorID, b.Amount, formatTime(b.Timestamp), b.Seq, b.Valid, string(b.RejectionReason),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert bid %s: %w", b.BidID, err)
		}
	}

	if m.Participants != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE auction_id = ?`, a.ID); err != nil {
			return fmt.Errorf("sqlite: clear participants %s: %w", a.ID, err)
		}
		for _, p := range m.Participants {
			_, err := tx.ExecContext(ctx, `INSERT INTO participants (
				auction_id, vendor_id, best_bid, rank, bid_count, achieved_at, achieved_seq
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				a.ID, p.VendorID, nullFloat(p.BestBid), nullInt(p.Rank), p.BidCount, formatTime(p.AchievedAt), p.AchievedSeq,
			)
			if err != nil {
				return fmt.Errorf("sqlite: insert participant %s/%s: %w", a.ID, p.VendorID, err)
			}
		}
	}

	if err := insertReceipts(ctx, tx, m.Entries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit auction %s: %w", a.ID, err)
	}
	return nil
}

// GetAuction returns one auction
func (r *SQLiteRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	row := r.conn.QueryRowContext(ctx, auctionSelect+` WHERE id = ?`, auctionID)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("sqlite: get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("sqlite: get auction %s: %w", auctionID, err)
	}
	return a, nil
}

// ListAuctions returns all auctions ordered by creation time
func (r *SQLiteRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	rows, err := r.conn.QueryContext(ctx, auctionSelect+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list auctions: %w", err)
	}
	defer rows.Close()

	var out []model.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan auction: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetParticipants returns the stored standings of an auction, best first
func (r *SQLiteRepo) GetParticipants(ctx context.Context, auctionID string) ([]model.Participant, error) {
	if err := r.ensureAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	rows, err := r.conn.QueryContext(ctx, `SELECT vendor_id, best_bid, rank, bid_count, achieved_at, achieved_seq
		FROM participants WHERE auction_id = ? ORDER BY rank IS NULL, rank`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get participants %s: %w", auctionID, err)
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var (
			p          = model.Participant{AuctionID: auctionID}
			best       sql.NullFloat64
			rank       sql.NullInt64
			achievedAt string
		)
		if err := rows.Scan(&p.VendorID, &best, &rank, &p.BidCount, &achievedAt, &p.AchievedSeq); err != nil {
			return nil, fmt.Errorf("sqlite: scan participant: %w", err)
		}
		if best.Valid {
			v := best.Float64
			p.BestBid = &v
		}
		if rank.Valid {
			v := int(rank.Int64)
			p.Rank = &v
		}
		if p.AchievedAt, err = parseTime(achievedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetBids returns every bid attempt of an auction in arrival order
func (r *SQLiteRepo) GetBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if err := r.ensureAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	rows, err := r.conn.QueryContext(ctx, `SELECT bid_id, vendor_id, amount, timestamp, seq, valid, rejection_reason
		FROM bids WHERE auction_id = ? ORDER BY seq`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get bids %s: %w", auctionID, err)
	}
	defer rows.Close()

	var out []model.Bid
	for rows.Next() {
		var (
			b      = model.Bid{AuctionID: auctionID}
			ts     string
			reason string
		)
		if err := rows.Scan(&b.BidID, &b.VendorID, &b.Amount, &ts, &b.Seq, &b.Valid, &reason); err != nil {
			return nil, fmt.Errorf("sqlite: scan bid: %w", err)
		}
		b.RejectionReason = model.RejectionReason(reason)
		if b.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetReceipt returns the receipt log of an auction
func (r *SQLiteRepo) GetReceipt(ctx context.Context, auctionID string) ([]model.ReceiptEntry, error) {
	if err := r.ensureAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	rows, err := r.conn.QueryContext(ctx, `SELECT seq, event, timestamp, details, prev_hash, hash
		FROM receipts WHERE auction_id = ? ORDER BY seq`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get receipt %s: %w", auctionID, err)
	}
	defer rows.Close()

	var out []model.ReceiptEntry
	for rows.Next() {
		var (
			e       = model.ReceiptEntry{AuctionID: auctionID}
			event   string
			ts      string
			details string
		)
		if err := rows.Scan(&e.Seq, &event, &ts, &details, &e.PrevHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("sqlite: scan receipt: %w", err)
		}
		e.Event = model.ReceiptEvent(event)
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("sqlite: decode receipt %s/%d: %w", auctionID, e.Seq, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EligibleVendors returns the vendors that quoted on a listing
func (r *SQLiteRepo) EligibleVendors(ctx context.Context, listingID string) ([]string, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT vendor_id FROM quotes WHERE listing_id = ? ORDER BY rowid`, listingID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: eligible vendors %s: %w", listingID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("sqlite: scan quote: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sqlite: eligible vendors for %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return out, nil
}

// AddQuote registers a vendor's quote on a listing. Duplicates are ignored.
func (r *SQLiteRepo) AddQuote(ctx context.Context, listingID, vendorID string) error {
	_, err := r.conn.ExecContext(ctx, `INSERT OR IGNORE INTO quotes (listing_id, vendor_id) VALUES (?, ?)`, listingID, vendorID)
	if err != nil {
		return fmt.Errorf("sqlite: add quote %s/%s: %w", listingID, vendorID, err)
	}
	return nil
}

func (r *SQLiteRepo) ensureAuction(ctx context.Context, auctionID string) error {
	var one int
	err := r.conn.QueryRowContext(ctx, `SELECT 1 FROM auctions WHERE id = ?`, auctionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return fmt.Errorf("sqlite: auction %s: %w", auctionID, err)
	}
	return nil
}

func insertReceipts(ctx context.Context, tx *sql.Tx, entries []model.ReceiptEntry) error {
	for _, e := range entries {
		details, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("sqlite: encode receipt %s/%d: %w", e.AuctionID, e.Seq, err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO receipts (
			auction_id, seq, event, timestamp, details, prev_hash, hash
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.AuctionID, e.Seq, string(e.Event), formatTime(e.Timestamp), string(details), e.PrevHash, e.Hash,
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert receipt %s/%d: %w", e.AuctionID, e.Seq, err)
		}
	}
	return nil
}

const auctionSelect = `SELECT id, listing_id, buyer_id, start_time, end_time, rule_kind, rule_value,
	extension_window_ns, extension_duration_ns, status, eligible_vendors, extension_count,
	created_at, ended_at FROM auctions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (model.Auction, error) {
	var (
		a                      model.Auction
		start, end, created    string
		kind, status, eligible string
		windowNs, durationNs   int64
		endedAt                sql.NullString
	)
	err := row.Scan(&a.ID, &a.ListingID, &a.BuyerID, &start, &end, &kind, &a.Rule.Value,
		&windowNs, &durationNs, &status, &eligible, &a.ExtensionCount, &created, &endedAt)
	if err != nil {
		return model.Auction{}, err
	}

	a.Rule.Kind = model.RuleKind(kind)
	a.Status = model.Status(status)
	a.ExtensionWindow = time.Duration(windowNs)
	a.ExtensionDuration = time.Duration(durationNs)
	if err := json.Unmarshal([]byte(eligible), &a.EligibleVendors); err != nil {
		return model.Auction{}, fmt.Errorf("decode eligible vendors: %w", err)
	}
	if a.StartTime, err = parseTime(start); err != nil {
		return model.Auction{}, err
	}
	if a.EndTime, err = parseTime(end); err != nil {
		return model.Auction{}, err
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return model.Auction{}, err
	}
	if endedAt.Valid {
		t, err := parseTime(endedAt.String)
		if err != nil {
			return model.Auction{}, err
		}
		a.EndedAt = &t
	}
	return a, nil
}

// timeLayout is fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
