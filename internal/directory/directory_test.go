package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/assistencia-service/internal/domain"
	"github.com/spec-kit/assistencia-service/internal/repository"
	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

type fakeDirectory struct {
	getDeposit    func(ctx context.Context, id string) (*domain.Deposit, error)
	getAssistance func(ctx context.Context, id string) (*domain.Assistance, error)
}

func (f *fakeDirectory) GetDeposit(ctx context.Context, id string) (*domain.Deposit, error) {
	return f.getDeposit(ctx, id)
}

func (f *fakeDirectory) GetAssistance(ctx context.Context, id string) (*domain.Assistance, error) {
	return f.getAssistance(ctx, id)
}

func TestResolveDeposit(t *testing.T) {
	r := NewResolver(Dependencies{Repo: &fakeDirectory{
		getDeposit: func(_ context.Context, id string) (*domain.Deposit, error) {
			return &domain.Deposit{ID: id, Nome: "Central"}, nil
		},
	}})

	dep, err := r.Deposit(context.Background(), "deposito_saida_id", " d1 ")
	require.NoError(t, err)
	assert.Equal(t, "d1", dep.ID)
	assert.Equal(t, "Central", dep.Nome)
}

func TestMissingEntryNamesField(t *testing.T) {
	r := NewResolver(Dependencies{Repo: &fakeDirectory{
		getAssistance: func(context.Context, string) (*domain.Assistance, error) {
			return nil, repository.ErrNotFound
		},
	}})

	_, err := r.Assistance(context.Background(), "assistencia_id", "a9")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "assistencia_id", de.Details["campo"])
}

func TestTransportFailureIsCollaboratorError(t *testing.T) {
	r := NewResolver(Dependencies{Repo: &fakeDirectory{
		getDeposit: func(context.Context, string) (*domain.Deposit, error) {
			return nil, errors.New("connection refused")
		},
	}})

	_, err := r.Deposit(context.Background(), "deposito_retorno_id", "d1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCollaborator))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestTimeoutIsCollaboratorError(t *testing.T) {
	r := NewResolver(Dependencies{
		Timeout: 10 * time.Millisecond,
		Repo: &fakeDirectory{
			getDeposit: func(ctx context.Context, _ string) (*domain.Deposit, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		},
	})

	_, err := r.Deposit(context.Background(), "deposito_entrada_id", "d1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeCollaborator))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBlankIDIsValidationError(t *testing.T) {
	r := NewResolver(Dependencies{Repo: &fakeDirectory{}})
	_, err := r.Deposit(context.Background(), "deposito_origem_id", "  ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestLookupUsesTrimmedID(t *testing.T) {
	var gotDeposit, gotAssistance string
	r := NewResolver(Dependencies{Repo: &fakeDirectory{
		getDeposit: func(_ context.Context, id string) (*domain.Deposit, error) {
			gotDeposit = id
			if id != "d1" {
				return nil, repository.ErrNotFound
			}
			return &domain.Deposit{ID: id}, nil
		},
		getAssistance: func(_ context.Context, id string) (*domain.Assistance, error) {
			gotAssistance = id
			if id != "5" {
				return nil, repository.ErrNotFound
			}
			return &domain.Assistance{ID: id}, nil
		},
	}})

	_, err := r.Deposit(context.Background(), "deposito_saida_id", " d1 ")
	require.NoError(t, err)
	_, err = r.Assistance(context.Background(), "assistencia_id", "\t5 ")
	require.NoError(t, err)

	assert.Equal(t, "d1", gotDeposit)
	assert.Equal(t, "5", gotAssistance)
}
