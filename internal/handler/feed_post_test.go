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

type fakeFeedPostService struct {
	deleteErr error
}

func (f *fakeFeedPostService) Create(ctx context.Context, userID int64, req *model.CreateFeedPostRequest) (*model.FeedPost, error) {
	return &model.FeedPost{ID: 1, UserID: userID, Content: req.Content, Type: "recommendation_request"}, nil
}

func (f *fakeFeedPostService) List(ctx context.Context, userID int64) ([]model.FeedPost, error) {
	return nil, nil
}

func (f *fakeFeedPostService) Delete(ctx context.Context, userID, postID int64) error {
	return f.deleteErr
}

func TestFeedPostHandler(t *testing.T) {
	h := NewFeedPostHandler(&fakeFeedPostService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/feed/posts", `{"content":"Best ramen near the station?"}`, 4, nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	post := decodeBody(t, rec)["post"].(map[string]interface{})
	assert.Equal(t, "recommendation_request", post["type"])

	rec = httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/feed/posts", `{"content":""}`, 4, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/feed/posts", "", 4, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"posts":[]}`, rec.Body.String())
}

func TestFeedPostHandler_DeleteOthersPost(t *testing.T) {
	h := NewFeedPostHandler(&fakeFeedPostService{deleteErr: model.ErrForbidden}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Delete(rec, newRequest(http.MethodDelete, "/feed/posts/1", "", 5, map[string]string{"id": "1"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
