package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"nisser/internal/model"
	"nisser/internal/repository"
)

// ReviewService handles reviews, their preference tags and useful marks.
type ReviewService struct {
	db         *sqlx.DB
	reviewRepo repository.ReviewRepository
	followRepo repository.FollowRepository
	usefulRepo repository.UsefulMarkRepository
	outbox     repository.OutboxRepository
	log        *zap.Logger
}

func NewReviewService(
	db *sqlx.DB,
	reviewRepo repository.ReviewRepository,
	followRepo repository.FollowRepository,
	usefulRepo repository.UsefulMarkRepository,
	outbox repository.OutboxRepository,
	log *zap.Logger,
) *ReviewService {
	return &ReviewService{
		db:         db,
		reviewRepo: reviewRepo,
		followRepo: followRepo,
		usefulRepo: usefulRepo,
		outbox:     outbox,
		log:        log.Named("review"),
	}
}

// Create stores the review with its preferences and queues NEW_REVIEW
// notifications for the author's followers.
func (s *ReviewService) Create(ctx context.Context, userID int64, req *model.ReviewRequest) (*model.Review, error) {
	review := req.ToReview(userID)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.reviewRepo.Create(ctx, tx, review); err != nil {
		return nil, err
	}

	if err := s.reviewRepo.ReplacePreferences(ctx, tx, review.ID, req.Preferences); err != nil {
		return nil, err
	}

	if err := s.outbox.Enqueue(ctx, tx, model.NewReviewCreatedEvent(userID, review.ID, review.LocationName)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.log.Info("review created", zap.Int64("review_id", review.ID), zap.Int64("user_id", userID))
	return s.Get(ctx, review.ID)
}

// Get returns a review with its author and preferences.
func (s *ReviewService) Get(ctx context.Context, reviewID int64) (*model.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	reviews := []model.Review{*review}
	if err := s.attachPreferences(ctx, reviews); err != nil {
		return nil, err
	}
	return &reviews[0], nil
}

// Update rewrites an owned review and replaces its preferences in full.
func (s *ReviewService) Update(ctx context.Context, userID, reviewID int64, req *model.ReviewRequest) (*model.Review, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.lockOwned(ctx, tx, userID, reviewID); err != nil {
		return nil, err
	}

	review := req.ToReview(userID)
	review.ID = reviewID

	if err := s.reviewRepo.Update(ctx, tx, review); err != nil {
		return nil, err
	}

	if err := s.reviewRepo.ReplacePreferences(ctx, tx, reviewID, req.Preferences); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.Get(ctx, reviewID)
}

func (s *ReviewService) Delete(ctx context.Context, userID, reviewID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.lockOwned(ctx, tx, userID, reviewID); err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, tx, reviewID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListByUser returns ownerID's reviews. Other users' reviews are only
// visible to their followers.
func (s *ReviewService) ListByUser(ctx context.Context, viewerID, ownerID int64) ([]model.Review, error) {
	if viewerID != ownerID {
		following, err := s.followRepo.Exists(ctx, viewerID, ownerID)
		if err != nil {
			return nil, err
		}
		if !following {
			return nil, model.ErrMustFollowToView
		}
	}

	reviews, err := s.reviewRepo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.attachPreferences(ctx, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Feed returns the newest reviews of userID and the users they follow.
func (s *ReviewService) Feed(ctx context.Context, userID int64) ([]model.Review, error) {
	reviews, err := s.reviewRepo.Feed(ctx, userID, model.ReviewFeedLimit)
	if err != nil {
		return nil, err
	}
	if err := s.attachPreferences(ctx, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ToggleUseful flips the caller's useful mark and reports whether it is now set.
// Setting the mark queues a REVIEW_USEFUL notification for the owner.
func (s *ReviewService) ToggleUseful(ctx context.Context, userID, reviewID int64) (bool, error) {
	ownerID, err := s.reviewRepo.GetOwnerID(ctx, reviewID)
	if err != nil {
		return false, err
	}
	if ownerID == userID {
		return false, model.ErrCannotMarkOwnReview
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.usefulRepo.Insert(ctx, tx, reviewID, userID)
	if err != nil {
		return false, err
	}

	if !inserted {
		if err := s.usefulRepo.Delete(ctx, tx, reviewID, userID); err != nil {
			return false, err
		}
	} else {
		if err := s.outbox.Enqueue(ctx, tx, model.NewReviewMarkedUsefulEvent(userID, reviewID, ownerID)); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

func (s *ReviewService) UsefulStatus(ctx context.Context, userID, reviewID int64) (bool, error) {
	return s.usefulRepo.Exists(ctx, reviewID, userID)
}

// lockOwned locks the review row for the rest of tx and checks userID owns it.
func (s *ReviewService) lockOwned(ctx context.Context, tx *sqlx.Tx, userID, reviewID int64) error {
	ownerID, err := s.reviewRepo.LockOwnerID(ctx, tx, reviewID)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return model.ErrForbidden
	}
	return nil
}

// attachPreferences loads preference rows for all reviews in one query.
func (s *ReviewService) attachPreferences(ctx context.Context, reviews []model.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	ids := make([]int64, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}

	prefs, err := s.reviewRepo.GetPreferences(ctx, ids)
	if err != nil {
		return err
	}

	for i := range reviews {
		reviews[i].Preferences = prefs[reviews[i].ID]
		if reviews[i].Preferences == nil {
			reviews[i].Preferences = []model.ReviewPreference{}
		}
	}
	return nil
}
