package items

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClaimBridge/internal/domain/item"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

type fakeItemRepo struct {
	items map[string]*item.Item
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[string]*item.Item)}
}

func (r *fakeItemRepo) Create(ctx context.Context, it *item.Item) error {
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *fakeItemRepo) Get(ctx context.Context, id string) (*item.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeItemNotFound, "item not found").WithDetail(id)
	}
	cp := *it
	return &cp, nil
}

func (r *fakeItemRepo) List(ctx context.Context, opts ...item.QueryOption) ([]*item.Item, int64, error) {
	o := item.ApplyOptions(opts...)
	var all []*item.Item
	for _, it := range r.items {
		if o.Status != "" && it.Status != o.Status {
			continue
		}
		if o.Category != "" && it.Category != o.Category {
			continue
		}
		cp := *it
		all = append(all, &cp)
	}
	return all, int64(len(all)), nil
}

func (r *fakeItemRepo) Update(ctx context.Context, it *item.Item) error {
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *fakeItemRepo) AttachClaim(ctx context.Context, itemID, claimID string) error {
	return nil
}

func (r *fakeItemRepo) MarkClaimed(ctx context.Context, itemID, approvedClaimID string, fromStatuses []item.Status) (bool, error) {
	return false, nil
}

func (r *fakeItemRepo) ReleaseClaim(ctx context.Context, itemID, approvedClaimID string) error {
	return nil
}

func (r *fakeItemRepo) ResetToUnclaimed(ctx context.Context, itemID string) error { return nil }

func (r *fakeItemRepo) Delete(ctx context.Context, id string) error {
	delete(r.items, id)
	return nil
}

type fakeBlobStore struct {
	uploaded []string
}

func (b *fakeBlobStore) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	b.uploaded = append(b.uploaded, name)
	return "https://blobs.example/" + name, nil
}

type fakePublisher struct {
	topics []string
}

func (p *fakePublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	p.topics = append(p.topics, topic)
	return nil
}

func createInput() *CreateInput {
	return &CreateInput{
		Name:              "black wallet",
		Category:          string(item.CategoryOtherItems),
		Details:           "leather bifold",
		LocationFound:     "Kampala Road",
		UniqueIdentifiers: "Serial ABC123",
		DateFound:         time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		ReportedBy:        "finder-1",
	}
}

func TestCreateItem(t *testing.T) {
	repo := newFakeItemRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, nil, pub, logging.NewNopLogger())

	it, err := svc.Create(context.Background(), createInput())
	assert.NoError(t, err)
	assert.Equal(t, item.StatusUnclaimed, it.Status)
	assert.Empty(t, it.ClaimIDs)
	assert.Contains(t, pub.topics, "item.created")
}

func TestCreateItemUnknownCategory(t *testing.T) {
	svc := NewService(newFakeItemRepo(), nil, nil, logging.NewNopLogger())
	in := createInput()
	in.Category = "Spaceships"
	_, err := svc.Create(context.Background(), in)
	assert.True(t, errors.IsValidation(err))
}

func TestListRejectsUnknownFilters(t *testing.T) {
	svc := NewService(newFakeItemRepo(), nil, nil, logging.NewNopLogger())

	_, err := svc.List(context.Background(), &ListInput{Status: "vanished"})
	assert.Error(t, err)

	_, err = svc.List(context.Background(), &ListInput{Category: "Spaceships"})
	assert.Error(t, err)
}

func TestListPaginates(t *testing.T) {
	repo := newFakeItemRepo()
	svc := NewService(repo, nil, nil, logging.NewNopLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, createInput())
		assert.NoError(t, err)
	}

	res, err := svc.List(ctx, &ListInput{Page: 1, PageSize: 2})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 2, res.TotalPages)
}

func TestAttachPhoto(t *testing.T) {
	repo := newFakeItemRepo()
	blobs := &fakeBlobStore{}
	svc := NewService(repo, blobs, nil, logging.NewNopLogger())
	ctx := context.Background()

	it, err := svc.Create(ctx, createInput())
	assert.NoError(t, err)

	body := strings.NewReader("not really a jpeg")
	updated, err := svc.AttachPhoto(ctx, it.ID, "front.jpg", "image/jpeg", body, int64(body.Len()))
	assert.NoError(t, err)
	assert.Equal(t, "https://blobs.example/"+it.ID+"/front.jpg", updated.PhotoURL)
	assert.Len(t, blobs.uploaded, 1)
}

func TestAttachPhotoWithoutBlobStore(t *testing.T) {
	svc := NewService(newFakeItemRepo(), nil, nil, logging.NewNopLogger())
	_, err := svc.AttachPhoto(context.Background(), "item-1", "x.jpg", "image/jpeg", strings.NewReader("x"), 1)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStorageError))
}

func TestItemServiceRecordsMetrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "claimbridge",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prometheus.NewAppMetrics(collector)

	repo := newFakeItemRepo()
	svc := NewService(repo, &fakeBlobStore{}, &fakePublisher{}, logging.NewNopLogger(), WithMetrics(m))
	ctx := context.Background()

	it, err := svc.Create(ctx, createInput())
	assert.NoError(t, err)

	body := strings.NewReader("not really a jpeg")
	_, err = svc.AttachPhoto(ctx, it.ID, "front.jpg", "image/jpeg", body, int64(body.Len()))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	out := w.Body.String()

	assert.Contains(t, out, `claimbridge_items_registered_total{category="Other Items"} 1`)
	assert.Contains(t, out, `claimbridge_event_publish_total{status="ok",topic="item.created"} 1`)
	assert.Contains(t, out, `claimbridge_photo_upload_duration_seconds_count 1`)
}
