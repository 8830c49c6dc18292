package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hongminglow/loyalty-ledger/internal/models"
)

// CustomersKey is the well-known slot holding the serialized record set.
const CustomersKey = "loyalty.customers"

// SchemaVersion is written with every snapshot.
const SchemaVersion = 1

type snapshotDoc struct {
	Version   int                     `json:"version"`
	Customers []models.CustomerRecord `json:"customers"`
}

// CustomerRepository loads and saves the full customer record set through a KV slot.
type CustomerRepository struct {
	kv  KV
	log *slog.Logger
}

// NewCustomerRepository wraps kv.
func NewCustomerRepository(kv KV, logger *slog.Logger) *CustomerRepository {
	return &CustomerRepository{kv: kv, log: logger.With("component", "persistence")}
}

// Load returns the stored records. An absent or corrupt value yields an empty
// set; only backend failures are returned as errors.
func (r *CustomerRepository) Load(ctx context.Context) ([]models.CustomerRecord, error) {
	raw, err := r.kv.Get(ctx, CustomersKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load customers: %w: %w", models.ErrPersistenceUnavailable, err)
	}
	records, err := decodeSnapshot([]byte(raw))
	if err != nil {
		r.log.WarnContext(ctx, "stored customers unreadable, starting empty", slog.Any("error", err))
		return nil, nil
	}
	return records, nil
}

// Save replaces the stored record set with records.
func (r *CustomerRepository) Save(ctx context.Context, records []models.CustomerRecord) error {
	if records == nil {
		records = []models.CustomerRecord{}
	}
	data, err := json.Marshal(snapshotDoc{Version: SchemaVersion, Customers: records})
	if err != nil {
		return fmt.Errorf("encode customers: %w", err)
	}
	if err := r.kv.Set(ctx, CustomersKey, string(data)); err != nil {
		return fmt.Errorf("save customers: %w: %w", models.ErrPersistenceUnavailable, err)
	}
	return nil
}

func decodeSnapshot(data []byte) ([]models.CustomerRecord, error) {
	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if len(probe) > 0 && probe[0] == '[' {
		return decodeLegacy(probe)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Version < 1 || doc.Version > SchemaVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}
	return doc.Customers, nil
}

// legacyRecord accepts the unversioned array written by earlier builds, where
// the audit entry appeared as desc, price or pointsAdded.
type legacyRecord struct {
	ID              json.RawMessage `json:"id"`
	Name            string          `json:"name"`
	Mobile          string          `json:"mobile"`
	TotalPoints     int64           `json:"totalPoints"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastTransaction *struct {
		Desc        string    `json:"desc"`
		Description string    `json:"description"`
		Price       *float64  `json:"price"`
		PointsAdded *int64    `json:"pointsAdded"`
		PointsDelta *int64    `json:"pointsDelta"`
		Timestamp   time.Time `json:"timestamp"`
		Date        time.Time `json:"date"`
	} `json:"lastTransaction"`
}

func decodeLegacy(data []byte) ([]models.CustomerRecord, error) {
	var legacy []legacyRecord
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	out := make([]models.CustomerRecord, 0, len(legacy))
	for _, l := range legacy {
		rec := models.CustomerRecord{
			ID:          legacyID(l.ID),
			Name:        l.Name,
			Mobile:      l.Mobile,
			TotalPoints: l.TotalPoints,
			CreatedAt:   l.CreatedAt,
		}
		if rec.TotalPoints < 0 {
			return nil, fmt.Errorf("customer %s has negative balance", rec.ID)
		}
		if lt := l.LastTransaction; lt != nil {
			entry := &models.LastTransaction{Description: lt.Description, Timestamp: lt.Timestamp}
			if entry.Description == "" {
				entry.Description = lt.Desc
			}
			if entry.Description == "" && lt.Price != nil {
				entry.Description = fmt.Sprintf("Purchase of %.2f", *lt.Price)
			}
			switch {
			case lt.PointsDelta != nil:
				entry.PointsDelta = *lt.PointsDelta
			case lt.PointsAdded != nil:
				entry.PointsDelta = *lt.PointsAdded
			}
			if entry.Timestamp.IsZero() {
				entry.Timestamp = lt.Date
			}
			rec.LastTransaction = entry
		}
		out = append(out, rec)
	}
	return out, nil
}

// legacyID accepts ids stored either as JSON strings or as numbers.
func legacyID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
