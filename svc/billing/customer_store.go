package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/saasadmin/pkg/docstore"
	"github.com/dmitrymomot/saasadmin/pkg/logger"
)

// CustomersCollection is the global collection of customer mappings.
const CustomersCollection = "customers"

// CustomerMapping links a tenant to its provider customer. ID is the
// provider customer id and doubles as the document key.
type CustomerMapping struct {
	ID        string            `bson:"_key" json:"id"`
	TenantID  string            `bson:"tenant_id" json:"tenant_id"`
	Email     string            `bson:"email" json:"email"`
	Metadata  map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at" json:"updated_at"`
}

// CustomerStore reads and writes customer mappings.
type CustomerStore struct {
	docs    *docstore.Collection[CustomerMapping]
	logger  *slog.Logger
	metrics *Metrics
}

type CustomerStoreOption func(*CustomerStore)

func WithStoreLogger(l *slog.Logger) CustomerStoreOption {
	return func(s *CustomerStore) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithStoreMetrics(m *Metrics) CustomerStoreOption {
	return func(s *CustomerStore) { s.metrics = m }
}

func NewCustomerStore(driver docstore.Driver, opts ...CustomerStoreOption) *CustomerStore {
	s := &CustomerStore{
		docs:   docstore.NewCollection[CustomerMapping](driver, CustomersCollection, docstore.Global()),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the key index and the one-mapping-per-tenant index.
func (s *CustomerStore) EnsureIndexes(ctx context.Context) error {
	if err := s.docs.EnsureIndexes(ctx); err != nil {
		return err
	}
	return s.docs.EnsureUniqueIndex(ctx, "tenant_id")
}

// FindByTenant returns the tenant's mapping or nil. More than one match is
// logged as an anomaly and the first one wins.
func (s *CustomerStore) FindByTenant(ctx context.Context, tenantID string) (*CustomerMapping, error) {
	found, err := s.docs.GetByField(ctx, "tenant_id", tenantID)
	if err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
	default:
		ids := make([]string, len(found))
		for i, m := range found {
			ids[i] = m.ID
		}
		s.logger.WarnContext(ctx, "multiple customer mappings for tenant",
			logger.TenantID(tenantID),
			slog.Any("customer_ids", ids),
		)
		s.metrics.duplicateMapping()
	}

	return &found[0], nil
}

// Create stores m. It fails with docstore.ErrDuplicateKey when the tenant
// already has a mapping and the unique index is in place.
func (s *CustomerStore) Create(ctx context.Context, m *CustomerMapping) error {
	_, err := s.docs.Add(ctx, m)
	return err
}

func (s *CustomerStore) UpdateEmail(ctx context.Context, customerID, email string) error {
	return s.docs.Update(ctx, customerID, &CustomerMapping{Email: email})
}
