// Package items provides the application service for reporting and browsing
// found items.  Status transitions driven by claims live in the claims
// package; this service never mutates claim-derived state.
package items

import (
	"context"
	"io"
	"time"

	"github.com/turtacn/ClaimBridge/internal/domain/item"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

// BlobStore accepts an image upload and returns its public URL.
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
}

// EventPublisher emits item events to the broker, best effort.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// Service manages found-item records.
type Service interface {
	Create(ctx context.Context, input *CreateInput) (*item.Item, error)
	Get(ctx context.Context, id string) (*item.Item, error)
	List(ctx context.Context, input *ListInput) (*ListResult, error)
	AttachPhoto(ctx context.Context, itemID, filename, contentType string, r io.Reader, size int64) (*item.Item, error)
	Categories() []item.Category
}

// CreateInput carries the reporter-supplied fields of a new item.
type CreateInput struct {
	Name              string
	Category          string
	Details           string
	LocationFound     string
	UniqueIdentifiers string
	DateFound         time.Time
	ReportedBy        string
}

// ListInput filters and paginates the item listing.
type ListInput struct {
	Status   string
	Category string
	Search   string
	Page     int
	PageSize int
}

// ListResult is one page of items.
type ListResult struct {
	Items      []*item.Item `json:"items"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

type service struct {
	repo    item.Repository
	blobs   BlobStore
	events  EventPublisher
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*service)

// WithMetrics attaches application metrics to the item service.
func WithMetrics(m *prometheus.AppMetrics) ServiceOption {
	return func(s *service) { s.metrics = m }
}

// NewService wires the item service.  blobs and events may be nil when the
// corresponding backends are not configured.
func NewService(repo item.Repository, blobs BlobStore, events EventPublisher, logger logging.Logger, opts ...ServiceOption) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &service{repo: repo, blobs: blobs, events: events, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, input *CreateInput) (*item.Item, error) {
	it, err := item.New(input.Name, item.Category(input.Category), input.Details,
		input.LocationFound, input.UniqueIdentifiers, input.DateFound, input.ReportedBy)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}
	prometheus.RecordItemRegistered(s.metrics, string(it.Category))

	if s.events != nil {
		payload := kafka.ItemEventPayload{
			ItemID:     it.ID,
			Name:       it.Name,
			Category:   string(it.Category),
			Status:     string(it.Status),
			OccurredAt: time.Now().UTC(),
		}
		err := s.events.Publish(ctx, kafka.TopicItemCreated, it.ID, payload)
		prometheus.RecordEventPublish(s.metrics, kafka.TopicItemCreated, err)
		if err != nil {
			s.logger.Warn("item creation event publish failed",
				logging.String("item_id", it.ID), logging.Err(err))
		}
	}

	s.logger.Info("item reported",
		logging.String("item_id", it.ID),
		logging.String("category", string(it.Category)))
	return it, nil
}

func (s *service) Get(ctx context.Context, id string) (*item.Item, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, input *ListInput) (*ListResult, error) {
	page := input.Page
	if page <= 0 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	opts := []item.QueryOption{
		item.WithLimit(pageSize),
		item.WithOffset((page - 1) * pageSize),
	}
	if input.Status != "" {
		st := item.Status(input.Status)
		if !st.IsValid() {
			return nil, errors.InvalidParam("unknown item status: " + input.Status)
		}
		opts = append(opts, item.WithStatus(st))
	}
	if input.Category != "" {
		cat := item.Category(input.Category)
		if !cat.IsValid() {
			return nil, errors.InvalidParam("unknown item category: " + input.Category)
		}
		opts = append(opts, item.WithCategory(cat))
	}
	if input.Search != "" {
		opts = append(opts, item.WithSearch(input.Search))
	}

	list, total, err := s.repo.List(ctx, opts...)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return &ListResult{
		Items:      list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *service) AttachPhoto(ctx context.Context, itemID, filename, contentType string, r io.Reader, size int64) (*item.Item, error) {
	if s.blobs == nil {
		return nil, errors.New(errors.ErrCodeStorageError, "blob storage not configured")
	}
	it, err := s.repo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	url, err := s.blobs.Upload(ctx, itemID+"/"+filename, contentType, r, size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "photo upload failed")
	}
	prometheus.RecordPhotoUpload(s.metrics, time.Since(start))

	it.PhotoURL = url
	it.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) Categories() []item.Category {
	return item.Categories()
}
