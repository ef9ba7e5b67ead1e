package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/l33tdawg/cfp-directory-plugins/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Event{}, &models.ReviewCriterion{}, &models.Submission{}, &models.Review{}, &models.ServiceAccount{}))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestReviewRepositoryEnforcesOneReviewPerReviewer(t *testing.T) {
	db := newTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	first := models.Review{SubmissionID: 1, ReviewerID: 7, OverallScore: 3.5}
	require.NoError(t, repo.Create(ctx, &first))

	duplicate := models.Review{SubmissionID: 1, ReviewerID: 7, OverallScore: 4.0}
	err := repo.Create(ctx, &duplicate)
	require.Error(t, err)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// A different reviewer on the same submission is fine.
	other := models.Review{SubmissionID: 1, ReviewerID: 8, OverallScore: 2.0}
	require.NoError(t, repo.Create(ctx, &other))
}

func TestReviewRepositoryGetBySubmissionAndReviewer(t *testing.T) {
	db := newTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	created := models.Review{SubmissionID: 2, ReviewerID: 7, OverallScore: 4.1, Recommendation: "ACCEPT"}
	require.NoError(t, repo.Create(ctx, &created))

	found, err := repo.GetBySubmissionAndReviewer(ctx, 2, 7)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.Equal(t, "ACCEPT", found.Recommendation)

	_, err = repo.GetBySubmissionAndReviewer(ctx, 2, 99)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestReviewRepositoryUpdateKeepsIdentity(t *testing.T) {
	db := newTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	review := models.Review{SubmissionID: 3, ReviewerID: 7, OverallScore: 3.0}
	require.NoError(t, repo.Create(ctx, &review))

	review.OverallScore = 4.4
	review.Recommendation = "ACCEPT"
	require.NoError(t, repo.Update(ctx, &review))

	reviews, err := repo.ListBySubmission(ctx, 3)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.InDelta(t, 4.4, reviews[0].OverallScore, 0.001)
}

func TestServiceAccountRepositoryGetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewServiceAccountRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, "AI Reviewer", "https://cdn.example.com/bot.png")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := repo.GetOrCreate(ctx, "AI Reviewer", "ignored")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}
