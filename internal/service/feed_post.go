package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"nisser/internal/model"
	"nisser/internal/repository"
)

const defaultFeedPostType = "recommendation_request"

// FeedPostService handles "looking for recommendations" posts.
type FeedPostService struct {
	db       *sqlx.DB
	postRepo repository.FeedPostRepository
	userRepo repository.UserRepository
	outbox   repository.OutboxRepository
	log      *zap.Logger
}

func NewFeedPostService(
	db *sqlx.DB,
	postRepo repository.FeedPostRepository,
	userRepo repository.UserRepository,
	outbox repository.OutboxRepository,
	log *zap.Logger,
) *FeedPostService {
	return &FeedPostService{
		db:       db,
		postRepo: postRepo,
		userRepo: userRepo,
		outbox:   outbox,
		log:      log.Named("feed_post"),
	}
}

// Create stores the post and queues NEW_POST notifications for the author's followers.
func (s *FeedPostService) Create(ctx context.Context, userID int64, req *model.CreateFeedPostRequest) (*model.FeedPost, error) {
	post := &model.FeedPost{
		UserID:  userID,
		Content: strings.TrimSpace(req.Content),
		Type:    req.Type,
	}
	if post.Type == "" {
		post.Type = defaultFeedPostType
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.postRepo.Create(ctx, tx, post); err != nil {
		return nil, err
	}

	if err := s.outbox.Enqueue(ctx, tx, model.NewFeedPostCreatedEvent(userID, post.ID)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if author, err := s.userRepo.GetSummary(ctx, userID); err == nil {
		post.User = author
	}

	s.log.Info("feed post created", zap.Int64("post_id", post.ID), zap.Int64("user_id", userID))
	return post, nil
}

// List returns posts by userID and the users they follow, newest first.
func (s *FeedPostService) List(ctx context.Context, userID int64) ([]model.FeedPost, error) {
	return s.postRepo.ListForUser(ctx, userID, model.FeedPostListLimit)
}

// Delete removes a post owned by userID.
func (s *FeedPostService) Delete(ctx context.Context, userID, postID int64) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return model.ErrForbidden
	}
	return s.postRepo.Delete(ctx, postID)
}
