// Package ledger owns the authoritative set of customer point balances.
//
// All mutations run check-then-apply under a single writer lock: preconditions
// are verified against the current snapshot, the replacement record is built,
// and only then is it committed. A rejected operation leaves the snapshot
// untouched. After each commit the full record set is flushed through the
// configured Persister.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/loyalty-ledger/internal/models"
	"github.com/hongminglow/loyalty-ledger/internal/points"
	"github.com/hongminglow/loyalty-ledger/internal/validate"
)

// Persister loads and saves the full record set.
type Persister interface {
	Load(ctx context.Context) ([]models.CustomerRecord, error)
	Save(ctx context.Context, records []models.CustomerRecord) error
}

// Ledger is the in-memory customer store keyed by normalized mobile number.
type Ledger struct {
	mu       sync.RWMutex
	items    map[string]models.CustomerRecord // by id
	byMobile map[string]string                // mobile -> id
	order    []string                         // ids, most recently created first

	repo     Persister
	calc     points.Calculator
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
	currency string

	// loadErr is the last Init failure. While set, the stored slot may hold
	// customers this ledger never saw, so saves are refused.
	loadErr error
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// WithCurrency sets the currency label used in audit descriptions.
func WithCurrency(code string) Option {
	return func(l *Ledger) {
		if code != "" {
			l.currency = code
		}
	}
}

// New creates an empty Ledger. Call Init to hydrate it from repo.
func New(repo Persister, calc points.Calculator, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		items:    make(map[string]models.CustomerRecord),
		byMobile: make(map[string]string),
		repo:     repo,
		calc:     calc,
		log:      logger.With("component", "ledger"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
		currency: "PKR",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Init replaces the in-memory state with the persisted record set. On a load
// failure the ledger starts empty and the error is returned for reporting.
func (l *Ledger) Init(ctx context.Context) error {
	records, err := l.repo.Load(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[string]models.CustomerRecord, len(records))
	l.byMobile = make(map[string]string, len(records))
	l.order = make([]string, 0, len(records))

	if err != nil {
		l.loadErr = err
		l.log.WarnContext(ctx, "load failed, starting with an empty ledger", slog.Any("error", err))
		return err
	}
	l.loadErr = nil

	for _, rec := range records {
		if rec.TotalPoints < 0 {
			l.log.WarnContext(ctx, "skipping stored customer with negative balance",
				slog.String("id", rec.ID), slog.Int64("total_points", rec.TotalPoints))
			continue
		}
		rec.Mobile = mobileKey(rec.Mobile)
		if _, dup := l.byMobile[rec.Mobile]; dup {
			l.log.WarnContext(ctx, "skipping duplicate stored customer", slog.String("mobile", rec.Mobile))
			continue
		}
		if rec.ID == "" {
			rec.ID = l.newID()
		}
		if _, dup := l.items[rec.ID]; dup {
			rec.ID = l.newID()
		}
		l.items[rec.ID] = rec.Clone()
		l.byMobile[rec.Mobile] = rec.ID
		l.order = append(l.order, rec.ID)
	}
	l.log.InfoContext(ctx, "ledger loaded", slog.Int("customers", len(l.order)))
	return nil
}

// Flush saves the current snapshot.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked(ctx)
}

// Apply dispatches a validated request by mode.
func (l *Ledger) Apply(ctx context.Context, req models.TransactionRequest) (models.CustomerRecord, error) {
	switch req.Mode {
	case models.ModeAdd:
		return l.CreateOrAdd(ctx, req)
	case models.ModeRedeem:
		return l.Redeem(ctx, req.Mobile, req.Points)
	default:
		return models.CustomerRecord{}, models.NewValidationError("mode", models.ReasonInvalid)
	}
}

// CreateOrAdd credits floor(amount / rate) points to the customer with
// req.Mobile, creating the customer when the number is unseen. Creation
// requires a name. Replaying a request credits it again.
func (l *Ledger) CreateOrAdd(ctx context.Context, req models.TransactionRequest) (models.CustomerRecord, error) {
	mobile, err := validate.Mobile(req.Mobile)
	if err != nil {
		return models.CustomerRecord{}, err
	}
	if !req.Amount.IsPositive() {
		return models.CustomerRecord{}, models.NewValidationError("amount", models.ReasonNotPositive)
	}
	var name string
	if strings.TrimSpace(req.Name) != "" {
		if name, err = validate.Name(req.Name); err != nil {
			return models.CustomerRecord{}, err
		}
	}
	delta, err := l.calc.FromAmount(req.Amount)
	if errors.Is(err, points.ErrAmountTooLarge) {
		return models.CustomerRecord{}, models.NewValidationError("amount", models.ReasonTooLarge)
	}
	if err != nil {
		return models.CustomerRecord{}, fmt.Errorf("points for %s: %w", req.Amount, err)
	}
	if delta < 0 {
		return models.CustomerRecord{}, fmt.Errorf("points for %s: negative delta %d: %w", req.Amount, delta, models.ErrInvariantViolation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry := &models.LastTransaction{
		Description: fmt.Sprintf("Purchase of %s %s, earned %d points", req.Amount.StringFixed(2), l.currency, delta),
		PointsDelta: delta,
		Timestamp:   now,
	}

	var next models.CustomerRecord
	created := false
	if id, ok := l.byMobile[mobile]; ok {
		next = l.items[id].Clone()
		if next.TotalPoints > math.MaxInt64-delta {
			return models.CustomerRecord{}, fmt.Errorf("customer %s: balance overflow: %w", id, models.ErrInvariantViolation)
		}
		next.TotalPoints += delta
		if next.Name == "" && name != "" {
			next.Name = name
		}
	} else {
		if name == "" {
			return models.CustomerRecord{}, models.NewValidationError("name", models.ReasonMissingField)
		}
		next = models.CustomerRecord{
			ID:          l.newID(),
			Name:        name,
			Mobile:      mobile,
			TotalPoints: delta,
			CreatedAt:   now,
		}
		created = true
	}
	next.LastTransaction = entry

	l.items[next.ID] = next
	if created {
		l.byMobile[mobile] = next.ID
		l.order = append([]string{next.ID}, l.order...)
	}
	l.log.InfoContext(ctx, "points added",
		slog.String("id", next.ID), slog.Bool("created", created),
		slog.Int64("delta", delta), slog.Int64("total_points", next.TotalPoints))

	return next.Clone(), l.persistLocked(ctx)
}

// Redeem debits points from an existing customer's balance.
func (l *Ledger) Redeem(ctx context.Context, mobile string, pts int64) (models.CustomerRecord, error) {
	if pts <= 0 {
		return models.CustomerRecord{}, models.NewValidationError("points", models.ReasonNotPositive)
	}
	key := mobileKey(mobile)

	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.byMobile[key]
	if !ok {
		return models.CustomerRecord{}, fmt.Errorf("customer %s: %w", key, models.ErrNotFound)
	}
	next := l.items[id].Clone()
	if pts > next.TotalPoints {
		return models.CustomerRecord{}, fmt.Errorf("redeem %d of %d points: %w", pts, next.TotalPoints, models.ErrInsufficientBalance)
	}
	newTotal := next.TotalPoints - pts
	if newTotal < 0 {
		return models.CustomerRecord{}, fmt.Errorf("customer %s: balance would be %d: %w", id, newTotal, models.ErrInvariantViolation)
	}
	next.TotalPoints = newTotal
	next.LastTransaction = &models.LastTransaction{
		Description: fmt.Sprintf("Redeemed %d points", pts),
		PointsDelta: -pts,
		Timestamp:   l.now(),
	}

	l.items[id] = next
	l.log.InfoContext(ctx, "points redeemed",
		slog.String("id", id), slog.Int64("delta", -pts), slog.Int64("total_points", newTotal))

	return next.Clone(), l.persistLocked(ctx)
}

// Lookup returns the record for mobile. Numbers that do not parse are simply
// not found.
func (l *Ledger) Lookup(mobile string) (models.CustomerRecord, error) {
	key := mobileKey(mobile)

	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.byMobile[key]
	if !ok {
		return models.CustomerRecord{}, fmt.Errorf("customer %s: %w", key, models.ErrNotFound)
	}
	return l.items[id].Clone(), nil
}

// List returns every record, most recently created first.
func (l *Ledger) List() []models.CustomerRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.listLocked()
}

// Remove deletes the record with id.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.items[id]
	if !ok {
		return fmt.Errorf("customer %s: %w", id, models.ErrNotFound)
	}
	delete(l.items, id)
	delete(l.byMobile, rec.Mobile)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.log.InfoContext(ctx, "customer removed", slog.String("id", id))

	return l.persistLocked(ctx)
}

func (l *Ledger) listLocked() []models.CustomerRecord {
	out := make([]models.CustomerRecord, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.items[id].Clone())
	}
	return out
}

// persistLocked flushes the snapshot. The in-memory commit stands even when
// the save fails. After a failed Init nothing is written until Init succeeds.
func (l *Ledger) persistLocked(ctx context.Context) error {
	if l.loadErr != nil {
		return fmt.Errorf("%w: save skipped, stored customers were never loaded: %w",
			models.ErrPersistenceUnavailable, l.loadErr)
	}
	if err := l.repo.Save(ctx, l.listLocked()); err != nil {
		l.log.ErrorContext(ctx, "flush failed", slog.Any("error", err))
		return err
	}
	return nil
}

func mobileKey(raw string) string {
	if m, err := validate.Mobile(raw); err == nil {
		return m
	}
	return strings.TrimSpace(raw)
}
