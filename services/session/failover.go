package session

import (
	"context"

	"medibot/models"

	"go.uber.org/zap"
)

// FailoverStore serves from the primary store and swaps to the fallback on
// any primary error. The downgrade is logged, never surfaced to the user;
// the fallback loses data across process restarts.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   *zap.Logger
}

// NewFailoverStore wraps primary with fallback. Primary may be nil, in which
// case every call goes straight to the fallback.
func NewFailoverStore(primary, fallback Store, logger *zap.Logger) *FailoverStore {
	return &FailoverStore{primary: primary, fallback: fallback, logger: logger}
}

func (s *FailoverStore) Load(ctx context.Context, userID string) (*models.Session, error) {
	if s.primary != nil {
		sess, err := s.primary.Load(ctx, userID)
		if err == nil {
			return sess, nil
		}
		s.logger.Warn("session store degraded: load falling back to in-process store",
			zap.String("userId", userID), zap.Error(err))
	}
	return s.fallback.Load(ctx, userID)
}

func (s *FailoverStore) Save(ctx context.Context, userID string, sess *models.Session) error {
	if s.primary != nil {
		err := s.primary.Save(ctx, userID, sess)
		if err == nil {
			return nil
		}
		s.logger.Warn("session store degraded: save falling back to in-process store",
			zap.String("userId", userID), zap.Error(err))
	}
	return s.fallback.Save(ctx, userID, sess)
}

func (s *FailoverStore) Delete(ctx context.Context, userID string) error {
	var primaryErr error
	if s.primary != nil {
		primaryErr = s.primary.Delete(ctx, userID)
		if primaryErr != nil {
			s.logger.Warn("session store degraded: delete falling back to in-process store",
				zap.String("userId", userID), zap.Error(primaryErr))
		}
	}
	// Delete from the fallback regardless so a stale in-process copy cannot
	// resurrect an ended session.
	fallbackErr := s.fallback.Delete(ctx, userID)
	if primaryErr != nil {
		return fallbackErr
	}
	return nil
}
