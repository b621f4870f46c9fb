package cron

import (
	"context"
	"fmt"

	"github.com/CruzR/inventorymgr/pkg/logger"
)

type TokenCleanupJobParams struct {
	Logger  *logger.Logger
	Service expiredTokenPurger
}

type expiredTokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// NewTokenCleanupJob builds the job that drops expired registration tokens.
func NewTokenCleanupJob(params TokenCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("registration service required")
	}
	return &tokenCleanupJob{
		logg:    params.Logger,
		service: params.Service,
	}, nil
}

type tokenCleanupJob struct {
	logg    *logger.Logger
	service expiredTokenPurger
}

func (j *tokenCleanupJob) Name() string { return "registration-token-cleanup" }

func (j *tokenCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.service.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("registration token cleanup: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "rows_deleted", deleted)
	j.logg.Info(logCtx, "registration token cleanup complete")
	return nil
}
