package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/repository/memory"
	matchmock "github.com/riskibarqy/epl-pipeline/internal/mocks/domain/match"
	"github.com/stretchr/testify/mock"
)

func TestUpsertService_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewMatchRepository()
	service := NewUpsertService(repo, nil)

	first := service.Upsert(ctx, []match.Match{validMatch()})
	if first != (UpsertResult{Inserted: 1}) {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second := service.Upsert(ctx, []match.Match{validMatch()})
	if second != (UpsertResult{Updated: 1}) {
		t.Fatalf("unexpected second result: %+v", second)
	}

	stored, err := repo.Select(ctx, match.Filter{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected one stored match, got=%d", len(stored))
	}
	if total := first.Add(second); total != (UpsertResult{Inserted: 1, Updated: 1}) {
		t.Fatalf("unexpected total: %+v", total)
	}
}

func TestUpsertService_IsolatesRecordFailuresUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := matchmock.NewRepository(t)
	service := NewUpsertService(repo, nil)

	ok := validMatch()
	lookupFails := validMatch()
	lookupFails.ID = "EPL_lookup_fails"
	insertFails := validMatch()
	insertFails.ID = "EPL_insert_fails"
	existing := validMatch()
	existing.ID = "EPL_existing"

	repo.On("Exists", mock.Anything, ok.ID).Return(false, nil).Once()
	repo.On("Insert", mock.Anything, ok).Return(nil).Once()
	repo.On("Exists", mock.Anything, lookupFails.ID).Return(false, errors.New("connection reset")).Once()
	repo.On("Exists", mock.Anything, insertFails.ID).Return(false, nil).Once()
	repo.On("Insert", mock.Anything, insertFails).Return(errors.New("disk full")).Once()
	repo.On("Exists", mock.Anything, existing.ID).Return(true, nil).Once()
	repo.On("Update", mock.Anything, existing.ID, existing).Return(nil).Once()

	got := service.Upsert(ctx, []match.Match{ok, lookupFails, insertFails, existing})
	want := UpsertResult{Inserted: 1, Updated: 1, Errors: 2}
	if got != want {
		t.Fatalf("unexpected result: got=%+v want=%+v", got, want)
	}
}
