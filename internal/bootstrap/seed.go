package bootstrap

import (
	"context"
	"errors"

	"anoa.com/handchatter/internal/entity"
	accountRepo "anoa.com/handchatter/internal/modules/account/repository"
	searchService "anoa.com/handchatter/internal/modules/search/service"
	"anoa.com/handchatter/pkg/apperror"
	"anoa.com/handchatter/pkg/logger"
	"anoa.com/handchatter/pkg/password"
)

const (
	DemoTutorID       = "demo_tutor"
	DemoTutorPassword = "demo1234"
)

// SeedDemoTutor creates a sample tutor for local development so the catalog
// is not empty. It is a no-op when the account already exists.
func SeedDemoTutor(ctx context.Context, accounts accountRepo.AccountRepository, index searchService.TutorIndex) error {
	log := logger.WithComponent("bootstrap")

	exists, err := accounts.ExistsLoginID(ctx, DemoTutorID)
	if err != nil {
		return err
	}
	if exists {
		log.Debug("demo tutor already exists, skipping seed")
		return nil
	}

	hash, err := password.Hash(DemoTutorPassword)
	if err != nil {
		return err
	}

	tutor := &entity.Account{
		Role:         entity.RoleTutor,
		LoginID:      DemoTutorID,
		Nickname:     "Demo Tutor",
		PasswordHash: hash,
		Email:        "demo@handchatter.local",
		Provider:     entity.ProviderLocal,
		ProfileImg:   entity.DefaultProfileImg,
		Authority:    true,
		Description:  "Korean sign language basics for beginners",
		Price:        20000,
		Level:        "beginner",
	}
	if err := accounts.Create(ctx, tutor); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil
		}
		return err
	}

	if err := index.IndexTutor(tutor); err != nil {
		log.WithError(err).Warn("failed to index demo tutor")
	}

	log.WithField("id", DemoTutorID).Info("demo tutor seeded")
	return nil
}
