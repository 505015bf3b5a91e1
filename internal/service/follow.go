package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"nisser/internal/model"
	"nisser/internal/repository"
)

// FollowService runs the follow request state machine and the follow graph reads.
type FollowService struct {
	db          *sqlx.DB
	followRepo  repository.FollowRepository
	requestRepo repository.FollowRequestRepository
	userRepo    repository.UserRepository
	outbox      repository.OutboxRepository
	log         *zap.Logger
}

func NewFollowService(
	db *sqlx.DB,
	followRepo repository.FollowRepository,
	requestRepo repository.FollowRequestRepository,
	userRepo repository.UserRepository,
	outbox repository.OutboxRepository,
	log *zap.Logger,
) *FollowService {
	return &FollowService{
		db:          db,
		followRepo:  followRepo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		outbox:      outbox,
		log:         log.Named("follow"),
	}
}

// SubmitRequest moves the (requester, recipient) request into pending and
// queues a FOLLOW_REQUEST notification for the recipient.
func (s *FollowService) SubmitRequest(ctx context.Context, requesterID, recipientID int64) error {
	if requesterID == recipientID {
		return model.ErrCannotFollowSelf
	}

	exists, err := s.userRepo.Exists(ctx, recipientID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrUserNotFound
	}

	following, err := s.followRepo.Exists(ctx, requesterID, recipientID)
	if err != nil {
		return err
	}
	if following {
		return model.ErrAlreadyFollowing
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	requestID, ok, err := s.requestRepo.Upsert(ctx, tx, requesterID, recipientID)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrRequestAlreadyPending
	}

	if err := s.outbox.Enqueue(ctx, tx, model.NewFollowRequestedEvent(requesterID, requestID, recipientID)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.log.Info("follow request submitted",
		zap.Int64("request_id", requestID),
		zap.Int64("requester_id", requesterID),
		zap.Int64("recipient_id", recipientID))
	return nil
}

// Respond accepts or declines a pending request addressed to recipientID.
// Accepting creates the requester -> recipient edge in the same transaction.
func (s *FollowService) Respond(ctx context.Context, recipientID, requestID int64, accept bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	req, err := s.requestRepo.GetForRecipient(ctx, tx, requestID, recipientID)
	if err != nil {
		return err
	}
	if req.Status != model.FollowRequestPending {
		return model.ErrRequestNotPending
	}

	status := model.FollowRequestRejected
	if accept {
		status = model.FollowRequestAccepted
	}

	resolved, err := s.requestRepo.Resolve(ctx, tx, requestID, status)
	if err != nil {
		return err
	}
	if !resolved {
		return model.ErrRequestNotPending
	}

	if accept {
		if _, err := s.followRepo.Create(ctx, tx, req.RequesterID, recipientID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.log.Info("follow request resolved",
		zap.Int64("request_id", requestID),
		zap.String("status", status))
	return nil
}

// Unfollow removes the edge. Removing a missing edge is not an error.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID int64) error {
	return s.followRepo.Delete(ctx, followerID, followingID)
}

// Status reports whether followerID follows followingID.
func (s *FollowService) Status(ctx context.Context, followerID, followingID int64) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followingID)
}

// RequestStatus reports whether requesterID has a pending request to recipientID.
func (s *FollowService) RequestStatus(ctx context.Context, requesterID, recipientID int64) (bool, error) {
	return s.requestRepo.HasPending(ctx, requesterID, recipientID)
}

func (s *FollowService) Suggestions(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return s.followRepo.Suggestions(ctx, userID, model.SuggestionLimit)
}

// PendingRequests lists incoming pending requests, newest first.
func (s *FollowService) PendingRequests(ctx context.Context, userID int64) ([]model.FollowRequest, error) {
	return s.requestRepo.ListPending(ctx, userID)
}

func (s *FollowService) Followers(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return s.followRepo.GetFollowers(ctx, userID)
}

func (s *FollowService) Following(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return s.followRepo.GetFollowing(ctx, userID)
}
