// Package core is the stocktake application service: catalogue maintenance,
// the scanning session and order tracking, with pluggable storage, document
// store and observability hooks.
package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"stocktake/internal/blob"
	"stocktake/internal/infra/persistence/memory"
	"stocktake/pkg/domain"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExportPrefix is the blob key prefix finalized orders are exported under.
const ExportPrefix = "exports"

// Service runs catalogue maintenance, the scanning session and order
// tracking on top of a PersistentStore. Catalogue and order history are read
// from the store on every call; the cart and pending item live in the service.
type Service struct {
	store   PersistentStore
	blobs   blob.Store
	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	newID   func() string

	mu      sync.Mutex
	cart    *domain.Cart
	pending *PendingItem
}

// WithBlobStore sets where exports are written and blob imports are read.
func WithBlobStore(b blob.Store) Option {
	return func(s *Service) {
		if b != nil {
			s.blobs = b
		}
	}
}

// NewService constructs a service backed by the supplied store. Without
// WithBlobStore exports go to an in-memory blob store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		clock:   systemClock{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		audit:   noopAuditRecorder{},
		newID:   uuid.NewString,
		cart:    domain.NewCart(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.blobs == nil {
		s.blobs = blob.NewMemory()
	}
	return s
}

// NewInMemoryService creates a service over fresh in-memory stores.
func NewInMemoryService(opts ...Option) *Service {
	return NewService(memory.NewStore(), opts...)
}

// Store returns the underlying persistent store.
func (s *Service) Store() PersistentStore { return s.store }

// Blobs returns the document store used for imports and exports.
func (s *Service) Blobs() blob.Store { return s.blobs }

// run wraps an operation with tracing, metrics, logging and audit. fn returns
// the id of the record it touched, if any.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context) (string, error)) error {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	entityID, err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	if es, ok := span.(EntitySpan); ok && entityID != "" {
		es.SetEntityID(entityID)
	}
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.logger.Warn("operation failed", "operation", op, "entity_id", entityID, "duration", duration, "error", err)
		s.recordAudit(ctx, op, entityID, duration, err)
		return err
	}
	s.logger.Debug("operation completed", "operation", op, "entity_id", entityID, "duration", duration)
	s.recordAudit(ctx, op, entityID, duration, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now().UTC(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// Catalogue returns the stored catalogue in order.
func (s *Service) Catalogue(ctx context.Context) (Catalogue, error) {
	var out Catalogue
	err := s.run(ctx, opListCatalogue, func(ctx context.Context) (string, error) {
		var err error
		out, err = s.store.LoadCatalogue(ctx)
		return "", err
	})
	return out, err
}

// SearchCatalogue returns up to SearchLimit products whose code or
// description contains query.
func (s *Service) SearchCatalogue(ctx context.Context, query string) ([]Product, error) {
	var out []Product
	err := s.run(ctx, opSearchCatalogue, func(ctx context.Context) (string, error) {
		catalogue, err := s.store.LoadCatalogue(ctx)
		if err != nil {
			return "", err
		}
		out = catalogue.Search(query, SearchLimit)
		return "", nil
	})
	return out, err
}

func requireProductFields(p Product) (Product, error) {
	p = domain.NormalizeProduct(p)
	if p.Code == "" || p.Description == "" {
		return p, domain.ErrProductFieldsRequired
	}
	return p, nil
}

// AddProduct inserts p. When the code is already catalogued the call fails
// with DuplicateCodeError unless overwrite is set, in which case the existing
// entry is replaced in place.
func (s *Service) AddProduct(ctx context.Context, p Product, overwrite bool) (Product, error) {
	err := s.run(ctx, opAddProduct, func(ctx context.Context) (string, error) {
		var err error
		if p, err = requireProductFields(p); err != nil {
			return p.Code, err
		}
		catalogue, err := s.store.LoadCatalogue(ctx)
		if err != nil {
			return p.Code, err
		}
		if catalogue.Contains(p.Code) && !overwrite {
			return p.Code, domain.DuplicateCodeError{Code: p.Code}
		}
		return p.Code, s.store.SaveCatalogue(ctx, catalogue.Upsert(p))
	})
	return p, err
}

// EditProduct replaces the entry at oldCode with p, keeping its position.
func (s *Service) EditProduct(ctx context.Context, oldCode string, p Product) (Product, error) {
	err := s.run(ctx, opEditProduct, func(ctx context.Context) (string, error) {
		var err error
		if p, err = requireProductFields(p); err != nil {
			return domain.CanonicalCode(oldCode), err
		}
		catalogue, err := s.store.LoadCatalogue(ctx)
		if err != nil {
			return p.Code, err
		}
		next, err := catalogue.RenameKey(oldCode, p)
		if err != nil {
			return p.Code, err
		}
		return p.Code, s.store.SaveCatalogue(ctx, next)
	})
	return p, err
}

// DeleteProduct removes code from the catalogue and reports whether it was present.
func (s *Service) DeleteProduct(ctx context.Context, code string) (bool, error) {
	var removed bool
	err := s.run(ctx, opDeleteProduct, func(ctx context.Context) (string, error) {
		code = domain.CanonicalCode(code)
		catalogue, err := s.store.LoadCatalogue(ctx)
		if err != nil {
			return code, err
		}
		if !catalogue.Contains(code) {
			return code, nil
		}
		removed = true
		return code, s.store.SaveCatalogue(ctx, catalogue.Delete(code))
	})
	return removed, err
}

// ImportCatalogue replaces the whole catalogue with the pairs read from r.
// On any error the stored catalogue is left untouched.
func (s *Service) ImportCatalogue(ctx context.Context, r io.Reader) (Catalogue, error) {
	var out Catalogue
	err := s.run(ctx, opImportCatalogue, func(ctx context.Context) (string, error) {
		catalogue, err := s.importCatalogue(ctx, "", r)
		out = catalogue
		return "", err
	})
	return out, err
}

// ImportCatalogueBlob imports the document stored at key.
func (s *Service) ImportCatalogueBlob(ctx context.Context, key string) (Catalogue, error) {
	var out Catalogue
	err := s.run(ctx, opImportCatalogue, func(ctx context.Context) (string, error) {
		_, rc, err := s.blobs.Get(ctx, key)
		if err != nil {
			return key, domain.UnreadableFileError{Name: key, Err: err}
		}
		defer func() { _ = rc.Close() }()
		catalogue, err := s.importCatalogue(ctx, key, rc)
		out = catalogue
		return key, err
	})
	return out, err
}

func (s *Service) importCatalogue(ctx context.Context, name string, r io.Reader) (Catalogue, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.UnreadableFileError{Name: name, Err: err}
	}
	catalogue, err := domain.ParseImport(string(raw))
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveCatalogue(ctx, catalogue); err != nil {
		return nil, err
	}
	return catalogue, nil
}

// Scan opens the pending item for a scanned code, replacing any pending
// item. Unknown codes are accepted as "Unknown Item".
func (s *Service) Scan(ctx context.Context, code string) (PendingItem, error) {
	var pending PendingItem
	err := s.run(ctx, opScan, func(ctx context.Context) (string, error) {
		catalogue, err := s.store.LoadCatalogue(ctx)
		if err != nil {
			return code, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if pending, err = s.cart.Scan(code, catalogue); err != nil {
			return code, err
		}
		s.setPending(pending)
		return pending.Code, nil
	})
	return pending, err
}

// SelectProduct opens the pending item for a catalogued product, typically
// one picked from SearchCatalogue results.
func (s *Service) SelectProduct(ctx context.Context, code string) (PendingItem, error) {
	var pending PendingItem
	err := s.run(ctx, opSelectProduct, func(ctx context.Context) (string, error) {
		code = domain.CanonicalCode(code)
		catalogue, err := s.store.LoadCatalogue(ctx)
		if err != nil {
			return code, err
		}
		p, ok := catalogue.Find(code)
		if !ok {
			return code, domain.ProductNotFoundError{Code: code}
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if pending, err = s.cart.Select(p); err != nil {
			return code, err
		}
		s.setPending(pending)
		return code, nil
	})
	return pending, err
}

// EditCartItem opens an existing cart line for quantity overwrite.
func (s *Service) EditCartItem(ctx context.Context, code string) (PendingItem, error) {
	var pending PendingItem
	err := s.run(ctx, opEditCartItem, func(context.Context) (string, error) {
		code = domain.CanonicalCode(code)
		s.mu.Lock()
		defer s.mu.Unlock()
		var ok bool
		if pending, ok = s.cart.Edit(code); !ok {
			return code, domain.ProductNotFoundError{Code: code}
		}
		s.setPending(pending)
		return code, nil
	})
	return pending, err
}

func (s *Service) setPending(p PendingItem) {
	s.pending = &p
}

// Pending returns the item awaiting a quantity, if any.
func (s *Service) Pending() (PendingItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return PendingItem{}, false
	}
	return *s.pending, true
}

// ConfirmQuantity validates input and merges the pending item into the cart.
// An invalid quantity leaves the pending item open so the user can retry.
func (s *Service) ConfirmQuantity(ctx context.Context, input string) (CartItem, error) {
	var line CartItem
	err := s.run(ctx, opConfirmQuantity, func(context.Context) (string, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pending == nil {
			return "", domain.ErrNoPendingItem
		}
		pending := *s.pending
		qty, err := domain.ParseQuantity(input)
		if err != nil {
			return pending.Code, err
		}
		pending.Quantity = qty
		if err := s.cart.ConfirmPending(pending); err != nil {
			return pending.Code, err
		}
		s.pending = nil
		line, _ = s.cart.Find(domain.CanonicalCode(pending.Code))
		return line.Code, nil
	})
	return line, err
}

// CancelPending drops the pending item without touching the cart.
func (s *Service) CancelPending() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return domain.ErrNoPendingItem
	}
	s.pending = nil
	return nil
}

// RemoveCartItem deletes a cart line and reports whether it existed.
func (s *Service) RemoveCartItem(ctx context.Context, code string) (bool, error) {
	var removed bool
	err := s.run(ctx, opRemoveCartItem, func(context.Context) (string, error) {
		code = domain.CanonicalCode(code)
		s.mu.Lock()
		defer s.mu.Unlock()
		_, removed = s.cart.Find(code)
		s.cart.Remove(code)
		return code, nil
	})
	return removed, err
}

// ClearCart empties the cart and drops any pending item.
func (s *Service) ClearCart(ctx context.Context) error {
	return s.run(ctx, opClearCart, func(context.Context) (string, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cart.Clear()
		s.pending = nil
		return "", nil
	})
}

// Cart returns the current cart lines, most recent first.
func (s *Service) Cart() []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

// FinalizeResult is the outcome of FinalizeOrder.
type FinalizeResult struct {
	Order  Order     `json:"order"`
	Export blob.Info `json:"export"`
}

// FinalizeOrder exports the cart, appends it to the order history and
// resets the session. The cart is kept when either step fails.
func (s *Service) FinalizeOrder(ctx context.Context) (FinalizeResult, error) {
	var result FinalizeResult
	err := s.run(ctx, opFinalizeOrder, func(ctx context.Context) (string, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		items := s.cart.Items()
		if len(items) == 0 {
			return "", domain.ErrEmptyCart
		}
		now := s.clock.Now()
		order := domain.NewOrder(s.newID(), now, items)
		info, err := blob.PutUnique(ctx, s.blobs, ExportPrefix, domain.ExportFilename(now),
			[]byte(domain.ExportText(items)),
			blob.PutOptions{ContentType: "text/plain; charset=utf-8", Metadata: map[string]string{"order-id": order.ID}})
		if err != nil {
			return order.ID, fmt.Errorf("export order: %w", err)
		}
		orders, err := s.store.LoadOrders(ctx)
		if err != nil {
			return order.ID, err
		}
		if err := s.store.SaveOrders(ctx, append(orders, order)); err != nil {
			return order.ID, err
		}
		s.cart.Clear()
		s.pending = nil
		result = FinalizeResult{Order: order.Clone(), Export: info}
		return order.ID, nil
	})
	return result, err
}

// ReportQuery selects the orders a report covers. From and To are
// YYYY-MM-DD; when both are empty the last thirty days are used unless All
// is set. Filter matches item code or description, ignoring case.
type ReportQuery struct {
	From   string
	To     string
	Filter string
	All    bool
}

// Report is an aggregated view of order history.
type Report struct {
	Range DateRange   `json:"range"`
	Rows  []ReportRow `json:"rows"`
}

// TotalQuantity sums the quantity column.
func (r Report) TotalQuantity() int {
	total := 0
	for _, row := range r.Rows {
		total += row.Quantity
	}
	return total
}

// Report aggregates order quantities per product over the queried range.
func (s *Service) Report(ctx context.Context, q ReportQuery) (Report, error) {
	var report Report
	err := s.run(ctx, opReport, func(ctx context.Context) (string, error) {
		rng, err := s.reportRange(q)
		if err != nil {
			return "", err
		}
		orders, err := s.store.LoadOrders(ctx)
		if err != nil {
			return "", err
		}
		catalogue, err := s.store.LoadCatalogue(ctx)
		if err != nil {
			return "", err
		}
		report = Report{Range: rng, Rows: domain.Aggregate(orders, rng, q.Filter, catalogue)}
		return "", nil
	})
	return report, err
}

func (s *Service) reportRange(q ReportQuery) (DateRange, error) {
	if q.From == "" && q.To == "" {
		if q.All {
			return DateRange{}, nil
		}
		return domain.DefaultDateRange(s.clock.Now()), nil
	}
	return domain.ParseDateRange(q.From, q.To)
}

// LastOrder returns the most recently appended order or domain.ErrNoOrders.
func (s *Service) LastOrder(ctx context.Context) (Order, error) {
	var order Order
	err := s.run(ctx, opLastOrder, func(ctx context.Context) (string, error) {
		orders, err := s.store.LoadOrders(ctx)
		if err != nil {
			return "", err
		}
		if order, err = domain.LastOrder(orders); err != nil {
			return "", err
		}
		return order.ID, nil
	})
	return order, err
}

// Orders returns the full order history, oldest first.
func (s *Service) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := s.run(ctx, opListOrders, func(ctx context.Context) (string, error) {
		var err error
		orders, err = s.store.LoadOrders(ctx)
		return "", err
	})
	return orders, err
}

// Exports lists exported order files with a download URL where the blob
// driver can provide one.
func (s *Service) Exports(ctx context.Context) ([]blob.Info, error) {
	var infos []blob.Info
	err := s.run(ctx, opListExports, func(ctx context.Context) (string, error) {
		var err error
		if infos, err = s.blobs.List(ctx, ExportPrefix+"/"); err != nil {
			return "", err
		}
		for i := range infos {
			url, err := s.blobs.PresignURL(ctx, infos[i].Key, blob.SignedURLOptions{})
			switch {
			case err == nil:
				infos[i].URL = url
			case errors.Is(err, blob.ErrUnsupported):
			default:
				s.logger.Warn("presign export", "key", infos[i].Key, "error", err)
			}
		}
		return "", nil
	})
	return infos, err
}

// ReadExport returns the content of an exported file.
func (s *Service) ReadExport(ctx context.Context, key string) ([]byte, error) {
	_, rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("read export %s: %w", key, err)
	}
	return buf.Bytes(), nil
}
