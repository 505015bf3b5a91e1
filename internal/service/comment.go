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

type CommentService struct {
	db          *sqlx.DB
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
	userRepo    repository.UserRepository
	outbox      repository.OutboxRepository
	log         *zap.Logger
}

func NewCommentService(
	db *sqlx.DB,
	commentRepo repository.CommentRepository,
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	outbox repository.OutboxRepository,
	log *zap.Logger,
) *CommentService {
	return &CommentService{
		db:          db,
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
		userRepo:    userRepo,
		outbox:      outbox,
		log:         log.Named("comment"),
	}
}

// List returns a review's comments oldest first.
func (s *CommentService) List(ctx context.Context, reviewID int64) ([]model.Comment, error) {
	if _, err := s.reviewRepo.GetOwnerID(ctx, reviewID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByReview(ctx, reviewID)
}

// Create adds a comment and, unless the commenter owns the review, queues a
// NEW_COMMENT notification for the owner in the same transaction.
func (s *CommentService) Create(ctx context.Context, userID, reviewID int64, content string) (*model.Comment, error) {
	ownerID, err := s.reviewRepo.GetOwnerID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	comment, err := s.commentRepo.Create(ctx, tx, reviewID, userID, strings.TrimSpace(content))
	if err != nil {
		return nil, err
	}

	if ownerID != userID {
		if err := s.outbox.Enqueue(ctx, tx, model.NewCommentCreatedEvent(userID, reviewID, ownerID)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	// author info is display-only
	if author, err := s.userRepo.GetSummary(ctx, userID); err == nil {
		comment.User = author
	} else {
		s.log.Warn("load comment author", zap.Int64("user_id", userID), zap.Error(err))
	}

	return comment, nil
}

// Update edits a comment. Only its author may do so.
func (s *CommentService) Update(ctx context.Context, userID, commentID int64, content string) (*model.Comment, error) {
	return s.commentRepo.Update(ctx, commentID, userID, strings.TrimSpace(content))
}

// Delete removes a comment. The author and the owner of the review may delete it.
func (s *CommentService) Delete(ctx context.Context, userID, commentID int64) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != userID {
		ownerID, err := s.reviewRepo.GetOwnerID(ctx, comment.ReviewID)
		if err != nil {
			return err
		}
		if ownerID != userID {
			return model.ErrForbidden
		}
	}

	return s.commentRepo.Delete(ctx, commentID)
}
