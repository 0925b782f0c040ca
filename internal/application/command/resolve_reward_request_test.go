package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/notification"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/reward"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

func (f *rewardFixture) openRequest(t *testing.T, studentID, rewardType string) *reward.Request {
	t.Helper()
	req, err := f.create.Handle(context.Background(), CreateRewardRequestCommand{
		StudentID:  studentID,
		RewardType: rewardType,
	})
	require.NoError(t, err)
	return req
}

func TestResolveRewardRequest_ApproveDebitsCost(t *testing.T) {
	f := newRewardFixture(t)
	f.fund(t, "aluno-1", 1050)
	req := f.openRequest(t, "aluno-1", "horas_afins")

	resolved, err := f.resolve.Handle(context.Background(), ResolveRewardRequestCommand{
		RequestID:   req.ID,
		ProfessorID: "prof-1",
		Approve:     true,
		Response:    "Aprovado.",
	})

	require.NoError(t, err)
	assert.Equal(t, reward.StatusApproved, resolved.Status)
	require.NotNil(t, resolved.ProfessorID)
	assert.Equal(t, "prof-1", *resolved.ProfessorID)
	assert.NotNil(t, resolved.ResolvedAt)

	// 1050 - 100: the debit may drop the level, never below 1.
	balance, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)
	assert.Equal(t, 950, balance.TotalXP)
	assert.Equal(t, 1, balance.Level)

	assert.Contains(t, f.sink.kinds(), notification.KindRewardApproved)
}

func TestResolveRewardRequest_RejectKeepsBalance(t *testing.T) {
	f := newRewardFixture(t)
	f.fund(t, "aluno-1", 300)
	req := f.openRequest(t, "aluno-1", "certificado")

	resolved, err := f.resolve.Handle(context.Background(), ResolveRewardRequestCommand{
		RequestID:   req.ID,
		ProfessorID: "prof-1",
		Approve:     false,
		Response:    "Fora do prazo.",
	})

	require.NoError(t, err)
	assert.Equal(t, reward.StatusRejected, resolved.Status)

	balance, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)
	assert.Equal(t, 300, balance.TotalXP)

	assert.Contains(t, f.sink.kinds(), notification.KindRewardRejected)
}

func TestResolveRewardRequest_SecondResolutionFails(t *testing.T) {
	f := newRewardFixture(t)
	f.fund(t, "aluno-1", 500)
	req := f.openRequest(t, "aluno-1", "horas_afins")

	_, err := f.resolve.Handle(context.Background(), ResolveRewardRequestCommand{
		RequestID:   req.ID,
		ProfessorID: "prof-1",
		Approve:     true,
	})
	require.NoError(t, err)

	// Neither a repeated approval nor a late rejection may apply twice.
	for _, approve := range []bool{true, false} {
		_, err := f.resolve.Handle(context.Background(), ResolveRewardRequestCommand{
			RequestID:   req.ID,
			ProfessorID: "prof-1",
			Approve:     approve,
		})
		assert.ErrorIs(t, err, shared.ErrRequestAlreadyClosed)
	}

	balance, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)
	assert.Equal(t, 400, balance.TotalXP)
}

func TestResolveRewardRequest_SpentBalanceFailsApproval(t *testing.T) {
	f := newRewardFixture(t)
	f.fund(t, "aluno-1", 120)
	req := f.openRequest(t, "aluno-1", "ponto_extra")

	// XP spent between creation and approval: the authoritative check runs
	// at approval time and the request stays pending.
	_, err := f.balances.Debit(context.Background(), "aluno-1", 80)
	require.NoError(t, err)

	_, err = f.resolve.Handle(context.Background(), ResolveRewardRequestCommand{
		RequestID:   req.ID,
		ProfessorID: "prof-1",
		Approve:     true,
	})
	assert.ErrorIs(t, err, shared.ErrBalanceTooLow)

	current, err := f.requests.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, reward.StatusPending, current.Status)
}

func TestResolveRewardRequest_StudentCannotResolve(t *testing.T) {
	f := newRewardFixture(t)
	f.fund(t, "aluno-1", 200)
	req := f.openRequest(t, "aluno-1", "horas_afins")

	_, err := f.resolve.Handle(context.Background(), ResolveRewardRequestCommand{
		RequestID:   req.ID,
		ProfessorID: "aluno-1",
		Approve:     true,
	})

	assert.True(t, shared.IsInvalidArgument(err))
}

func TestResolveRewardRequest_UnknownRequest(t *testing.T) {
	f := newRewardFixture(t)

	_, err := f.resolve.Handle(context.Background(), ResolveRewardRequestCommand{
		RequestID:   "ghost",
		ProfessorID: "prof-1",
		Approve:     true,
	})

	assert.ErrorIs(t, err, shared.ErrRequestNotFound)
}

func TestResolveRewardRequest_ConcurrentResolutionSingleWinner(t *testing.T) {
	f := newRewardFixture(t)
	f.fund(t, "aluno-1", 400)
	req := f.openRequest(t, "aluno-1", "horas_afins")

	const callers = 12
	errs := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.resolve.Handle(context.Background(), ResolveRewardRequestCommand{
				RequestID:   req.ID,
				ProfessorID: "prof-1",
				Approve:     true,
				Response:    "Aprovado.",
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrRequestAlreadyClosed)
	}
	assert.Equal(t, 1, winners)

	// One approval, one debit.
	balance, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)
	assert.Equal(t, 300, balance.TotalXP)
}
