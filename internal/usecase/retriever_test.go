package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/historycollector/internal/domain"
	"github.com/iho/historycollector/internal/usecase"
	"github.com/iho/historycollector/internal/usecase/mocks"
)

// instantTimer fires immediately and records every requested wait.
type instantTimer struct {
	c     chan time.Time
	waits []time.Duration
}

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}

func notFound(key string) error {
	return fmt.Errorf("get %s: %w", key, domain.ErrObjectNotFound)
}

func newTestRetriever(store usecase.ArchiveStore, maxRetries int, timer backoff.Timer) *usecase.Retriever {
	return usecase.NewRetriever(usecase.RetrieverConfig{
		Store:      store,
		BackOff:    backoff.NewConstantBackOff(usecase.DefaultRetryInterval),
		Timer:      timer,
		Logger:     zerolog.Nop(),
		MaxRetries: maxRetries,
	})
}

func TestRetriever_SucceedsAfterNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockArchiveStore(ctrl)
	key := "ledger/00/4c/93/ledger-004c93bf.xdr.gz"

	gomock.InOrder(
		store.EXPECT().Fetch(gomock.Any(), key).Return(nil, notFound(key)),
		store.EXPECT().Fetch(gomock.Any(), key).Return(nil, notFound(key)),
		store.EXPECT().Fetch(gomock.Any(), key).Return([]byte("payload"), nil),
	)

	timer := &instantTimer{}
	body, err := newTestRetriever(store, 2, timer).Fetch(context.Background(), key)

	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), body)
	assert.Equal(t, []time.Duration{180 * time.Second, 180 * time.Second}, timer.waits)
}

func TestRetriever_ExhaustsRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockArchiveStore(ctrl)
	key := "transactions/00/4c/93/transactions-004c93bf.xdr.gz"

	store.EXPECT().Fetch(gomock.Any(), key).Return(nil, notFound(key)).Times(2)

	timer := &instantTimer{}
	body, err := newTestRetriever(store, 1, timer).Fetch(context.Background(), key)

	require.Error(t, err)
	assert.Nil(t, body)
	assert.ErrorIs(t, err, domain.ErrRetrievalExhausted)
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
	assert.Len(t, timer.waits, 1)
}

func TestRetriever_NoRetriesConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockArchiveStore(ctrl)

	store.EXPECT().Fetch(gomock.Any(), "k").Return(nil, notFound("k")).Times(1)

	timer := &instantTimer{}
	_, err := newTestRetriever(store, 0, timer).Fetch(context.Background(), "k")

	assert.ErrorIs(t, err, domain.ErrRetrievalExhausted)
	assert.Empty(t, timer.waits)
}

func TestRetriever_OtherErrorsAreNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockArchiveStore(ctrl)
	accessDenied := errors.New("access denied")

	store.EXPECT().Fetch(gomock.Any(), "k").Return(nil, accessDenied).Times(1)

	timer := &instantTimer{}
	_, err := newTestRetriever(store, 5, timer).Fetch(context.Background(), "k")

	assert.ErrorIs(t, err, accessDenied)
	assert.NotErrorIs(t, err, domain.ErrRetrievalExhausted)
	assert.Empty(t, timer.waits)
}

func TestRetriever_StopsWaitingOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockArchiveStore(ctrl)
	ctx, cancel := context.WithCancel(context.Background())

	store.EXPECT().Fetch(gomock.Any(), "k").DoAndReturn(func(context.Context, string) ([]byte, error) {
		cancel()
		return nil, notFound("k")
	}).Times(1)

	_, err := newTestRetriever(store, 3, nil).Fetch(ctx, "k")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetriever_FetchFileBuildsKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockArchiveStore(ctrl)

	store.EXPECT().
		Fetch(gomock.Any(), "core/ledger/00/4c/93/ledger-004c93bf.xdr.gz").
		Return([]byte("x"), nil)

	r := usecase.NewRetriever(usecase.RetrieverConfig{
		Store:  store,
		Logger: zerolog.Nop(),
		Prefix: "core/",
	})

	_, err := r.FetchFile(context.Background(), "004c93bf", domain.FileKindLedger)
	require.NoError(t, err)
}

func TestRetriever_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockArchiveStore(ctrl)
	r := usecase.NewRetriever(usecase.RetrieverConfig{
		Store:      store,
		Logger:     zerolog.Nop(),
		Prefix:     "core",
		MaxRetries: 5,
	})

	gomock.InOrder(
		store.EXPECT().
			Fetch(gomock.Any(), "core/.well-known/stellar-history.json").
			Return([]byte(`{"version":1}`), nil),
		store.EXPECT().
			Fetch(gomock.Any(), "core/.well-known/stellar-history.json").
			Return(nil, notFound("core/.well-known/stellar-history.json")).
			Times(1),
	)

	require.NoError(t, r.Ping(context.Background()))

	err := r.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestRetriever_ReportsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockArchiveStore(ctrl)
	metrics := mocks.NewMockMetrics(ctrl)

	gomock.InOrder(
		store.EXPECT().Fetch(gomock.Any(), "k").Return(nil, notFound("k")),
		store.EXPECT().Fetch(gomock.Any(), "k").Return([]byte("x"), nil),
	)
	gomock.InOrder(
		metrics.EXPECT().ObserveFetch(usecase.FetchOutcomeNotFound, gomock.Any()),
		metrics.EXPECT().ObserveFetch(usecase.FetchOutcomeOK, gomock.Any()),
	)

	r := usecase.NewRetriever(usecase.RetrieverConfig{
		Store:      store,
		BackOff:    &backoff.ZeroBackOff{},
		Timer:      &instantTimer{},
		Metrics:    metrics,
		Logger:     zerolog.Nop(),
		MaxRetries: 1,
	})

	_, err := r.Fetch(context.Background(), "k")
	require.NoError(t, err)
}

func TestNewBackOff(t *testing.T) {
	b, err := usecase.NewBackOff(usecase.BackOffConstant, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, b.NextBackOff())

	b, err = usecase.NewBackOff(usecase.BackOffZero, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), b.NextBackOff())

	b, err = usecase.NewBackOff(usecase.BackOffExponential, time.Second)
	require.NoError(t, err)
	assert.NotEqual(t, backoff.Stop, b.NextBackOff())

	_, err = usecase.NewBackOff("fibonacci", time.Second)
	assert.Error(t, err)
}
