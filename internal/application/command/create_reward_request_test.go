package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/reward"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

type rewardFixture struct {
	learners *fakeLearnerRepo
	balances *fakeBalanceRepo
	requests *fakeRewardRepo
	create   *CreateRewardRequestHandler
	resolve  *ResolveRewardRequestHandler
	events   *capturingPublisher
	sink     *capturingSink
}

func newRewardFixture(t *testing.T) *rewardFixture {
	t.Helper()

	f := &rewardFixture{
		learners: newFakeLearnerRepo(student("aluno-1"), professor("prof-1")),
		balances: newFakeBalanceRepo(),
		events:   &capturingPublisher{},
		sink:     &capturingSink{},
	}
	f.requests = newFakeRewardRepo(f.balances)

	calculator := progression.NewCalculator(f.balances, f.events, testLogger())
	f.create = NewCreateRewardRequestHandler(f.learners, f.requests, calculator, testLogger())
	f.resolve = NewResolveRewardRequestHandler(f.learners, f.requests, f.events, f.sink, testLogger())
	return f
}

func (f *rewardFixture) fund(t *testing.T, userID string, amount int) {
	t.Helper()
	_, err := f.balances.Credit(context.Background(), userID, amount)
	require.NoError(t, err)
}

func TestCreateRewardRequest_Success(t *testing.T) {
	f := newRewardFixture(t)
	f.fund(t, "aluno-1", 150)

	req, err := f.create.Handle(context.Background(), CreateRewardRequestCommand{
		StudentID:  "aluno-1",
		RewardType: "horas_afins",
		Message:    "Para as horas complementares.",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, reward.TypeHorasAfins, req.RewardType)
	assert.Equal(t, 100, req.PointsCost)
	assert.Equal(t, reward.StatusPending, req.Status)

	// Creation holds no points; the balance is untouched until approval.
	balance, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)
	assert.Equal(t, 150, balance.TotalXP)
}

func TestCreateRewardRequest_CostExceedsBalance(t *testing.T) {
	f := newRewardFixture(t)
	f.fund(t, "aluno-1", 50)

	_, err := f.create.Handle(context.Background(), CreateRewardRequestCommand{
		StudentID:  "aluno-1",
		RewardType: "certificado",
	})

	assert.ErrorIs(t, err, shared.ErrCostExceedsBalance)
	assert.True(t, shared.IsInsufficientBalance(err))
}

func TestCreateRewardRequest_ZeroBalanceLearner(t *testing.T) {
	f := newRewardFixture(t)

	// A learner with no balance row reads as zero XP, not as an error.
	_, err := f.create.Handle(context.Background(), CreateRewardRequestCommand{
		StudentID:  "aluno-1",
		RewardType: "ponto_extra",
	})

	assert.ErrorIs(t, err, shared.ErrCostExceedsBalance)
}

func TestCreateRewardRequest_UnknownType(t *testing.T) {
	f := newRewardFixture(t)
	f.fund(t, "aluno-1", 500)

	_, err := f.create.Handle(context.Background(), CreateRewardRequestCommand{
		StudentID:  "aluno-1",
		RewardType: "viagem",
	})

	assert.ErrorIs(t, err, shared.ErrUnknownRewardType)
}

func TestCreateRewardRequest_UnknownLearner(t *testing.T) {
	f := newRewardFixture(t)

	_, err := f.create.Handle(context.Background(), CreateRewardRequestCommand{
		StudentID:  "ghost",
		RewardType: "horas_afins",
	})

	assert.ErrorIs(t, err, shared.ErrLearnerNotFound)
}
