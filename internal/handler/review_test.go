package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nisser/internal/model"
)

type fakeReviewService struct {
	created *model.ReviewRequest
	marked  bool
	err     error
}

func (f *fakeReviewService) Create(ctx context.Context, userID int64, req *model.ReviewRequest) (*model.Review, error) {
	f.created = req
	review := req.ToReview(userID)
	review.ID = 70
	return review, nil
}

func (f *fakeReviewService) Get(ctx context.Context, reviewID int64) (*model.Review, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Review{ID: reviewID}, nil
}

func (f *fakeReviewService) Update(ctx context.Context, userID, reviewID int64, req *model.ReviewRequest) (*model.Review, error) {
	if f.err != nil {
		return nil, f.err
	}
	return req.ToReview(userID), nil
}

func (f *fakeReviewService) Delete(ctx context.Context, userID, reviewID int64) error {
	return f.err
}

func (f *fakeReviewService) ListByUser(ctx context.Context, viewerID, ownerID int64) ([]model.Review, error) {
	return nil, f.err
}

func (f *fakeReviewService) Feed(ctx context.Context, userID int64) ([]model.Review, error) {
	return []model.Review{{ID: 1}, {ID: 2}}, nil
}

func (f *fakeReviewService) ToggleUseful(ctx context.Context, userID, reviewID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.marked = !f.marked
	return f.marked, nil
}

func (f *fakeReviewService) UsefulStatus(ctx context.Context, userID, reviewID int64) (bool, error) {
	return f.marked, nil
}

const validReviewBody = `{
	"location_name": "Corner Cafe",
	"location_type": "cafe",
	"coordinates": {"lat": 52.52, "lng": 13.405},
	"primary_emoji": "☕",
	"review_text": "Quiet and step free",
	"images": ["https://cdn.example.com/a.jpg"],
	"preferences": [{"preference_id": 3, "is_available": true}]
}`

func TestReviewHandler_Create(t *testing.T) {
	svc := &fakeReviewService{}
	h := NewReviewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/reviews", validReviewBody, 4, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	review := body["review"].(map[string]interface{})
	assert.Equal(t, float64(70), review["id"])
	assert.Equal(t, map[string]interface{}{"lat": 52.52, "lng": 13.405}, review["coordinates"])

	require.NotNil(t, svc.created)
	require.Len(t, svc.created.Preferences, 1)
	assert.True(t, svc.created.Preferences[0].IsAvailable)
}

func TestReviewHandler_CreateValidation(t *testing.T) {
	h := NewReviewHandler(&fakeReviewService{}, zap.NewNop())

	for _, body := range []string{
		`{"location_type":"cafe","coordinates":{"lat":1,"lng":1},"primary_emoji":"x"}`,
		`{"location_name":"A","location_type":"cafe","primary_emoji":"x"}`,
		`{"location_name":"A","location_type":"cafe","coordinates":{"lat":91,"lng":1},"primary_emoji":"x"}`,
		`{"location_name":"A","location_type":"cafe","coordinates":{"lat":1,"lng":1},"primary_emoji":"x","images":["not a url"]}`,
	} {
		rec := httptest.NewRecorder()
		h.Create(rec, newRequest(http.MethodPost, "/reviews", body, 4, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestReviewHandler_OwnerErrors(t *testing.T) {
	h := NewReviewHandler(&fakeReviewService{err: model.ErrForbidden}, zap.NewNop())
	params := map[string]string{"id": "70"}

	rec := httptest.NewRecorder()
	h.Update(rec, newRequest(http.MethodPut, "/reviews/70", validReviewBody, 5, params))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.Delete(rec, newRequest(http.MethodDelete, "/reviews/70", "", 5, params))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReviewHandler_ListByUserRequiresFollow(t *testing.T) {
	h := NewReviewHandler(&fakeReviewService{err: model.ErrMustFollowToView}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ListByUser(rec, newRequest(http.MethodGet, "/reviews/user/8", "", 5, map[string]string{"id": "8"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReviewHandler_GetMissing(t *testing.T) {
	h := NewReviewHandler(&fakeReviewService{err: model.ErrReviewNotFound}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/reviews/70", "", 5, map[string]string{"id": "70"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewHandler_ToggleUseful(t *testing.T) {
	svc := &fakeReviewService{}
	h := NewReviewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ToggleUseful(rec, newRequest(http.MethodPost, "/reviews/useful", `{"reviewId":70}`, 5, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"marked":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.UsefulStatus(rec, newRequest(http.MethodGet, "/reviews/useful/status/70", "", 5, map[string]string{"id": "70"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["isMarked"])

	rec = httptest.NewRecorder()
	h.ToggleUseful(rec, newRequest(http.MethodPost, "/reviews/useful", `{"reviewId":70}`, 5, nil))
	assert.JSONEq(t, `{"marked":false}`, rec.Body.String())
}

func TestReviewHandler_ToggleUsefulOwnReview(t *testing.T) {
	h := NewReviewHandler(&fakeReviewService{err: model.ErrCannotMarkOwnReview}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ToggleUseful(rec, newRequest(http.MethodPost, "/reviews/useful", `{"reviewId":70}`, 5, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewHandler_Feed(t *testing.T) {
	h := NewReviewHandler(&fakeReviewService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Feed(rec, newRequest(http.MethodGet, "/reviews/feed", "", 5, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["reviews"], 2)
}
