package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

func TestAsk_NoDocuments(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.qa.Ask(context.Background(), "s1", "Anything?")
	require.ErrorIs(t, err, appErr.ErrNoDocuments)
	require.Zero(t, env.gen.calls.Load())

	entries, err := env.log.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestAsk_EmptyQuery(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.pdf", "some text")
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := env.qa.Ask(context.Background(), "s1", q)
		require.ErrorIs(t, err, appErr.ErrEmptyQuery)
	}
	require.Zero(t, env.gen.calls.Load())
}

func TestAsk_RetrievesRelevantDocumentAndLogs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.upload(t, "cooking.pdf", "Pasta recipe: boil water, add salt, cook the noodles for ten minutes.")
	env.upload(t, "solar.pdf", "Solar panels convert sunlight into electricity using photovoltaic cells.")

	ans, err := env.qa.Ask(ctx, "s1", "How do solar panels produce electricity from sunlight?")
	require.NoError(t, err)
	require.Equal(t, "solar.pdf", ans.Source)
	require.Equal(t, "answer to How do solar panels produce electricity from sunlight?", ans.Answer)
	require.Empty(t, ans.LogError)
	require.Contains(t, env.gen.lastDoc, "photovoltaic")

	entries, err := env.log.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.QueryLogEntry{{Query: ans.Query, Response: ans.Answer}}, entries)
}

func TestAsk_SingleDocumentAlwaysChosen(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "only.pdf", "Quarterly revenue grew.")
	ans, err := env.qa.Ask(context.Background(), "s1", "Unrelated zebra question")
	require.NoError(t, err)
	require.Equal(t, "only.pdf", ans.Source)
}

func TestAsk_LogFailureStillAnswers(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.pdf", "text")
	env.qa.log = failingLog{Store: env.log}
	ans, err := env.qa.Ask(context.Background(), "s1", "What?")
	require.NoError(t, err)
	require.Equal(t, "answer to What?", ans.Answer)
	require.Equal(t, "disk full", ans.LogError)
}

func TestAsk_GenerationFailureIsNotLogged(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.pdf", "text")
	env.gen.err = errors.New("service unavailable")
	_, err := env.qa.Ask(context.Background(), "s1", "What?")
	require.ErrorIs(t, err, appErr.ErrGenerate)
	require.Equal(t, int32(1), env.gen.calls.Load())
	entries, err := env.log.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestAsk_OneQuestionPerSession(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.pdf", "text")
	env.gen.started = make(chan struct{}, 4)
	env.gen.release = make(chan struct{})

	type result struct {
		ans *model.Answer
		err error
	}
	first := make(chan result, 1)
	go func() {
		ans, err := env.qa.Ask(context.Background(), "s1", "What?")
		first <- result{ans, err}
	}()
	<-env.gen.started

	_, err := env.qa.Ask(context.Background(), "s1", "Something else?")
	require.ErrorIs(t, err, appErr.ErrBusy)

	close(env.gen.release)
	res := <-first
	require.NoError(t, res.err)
	require.Equal(t, "answer to What?", res.ans.Answer)

	ans, err := env.qa.Ask(context.Background(), "s1", "Something else?")
	require.NoError(t, err)
	require.Equal(t, "answer to Something else?", ans.Answer)
}

func TestAsk_SessionsDoNotBlockEachOther(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.pdf", "text")
	env.gen.started = make(chan struct{}, 4)
	env.gen.release = make(chan struct{})

	errs := make(chan error, 2)
	go func() {
		_, err := env.qa.Ask(context.Background(), "s1", "What?")
		errs <- err
	}()
	go func() {
		_, err := env.qa.Ask(context.Background(), "s2", "Something else?")
		errs <- err
	}()
	<-env.gen.started
	<-env.gen.started
	close(env.gen.release)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}

func TestAsk_RepeatedSubmissionJoinsInFlight(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.pdf", "text")
	env.gen.started = make(chan struct{}, 4)
	env.gen.release = make(chan struct{})

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := env.qa.Ask(context.Background(), "s1", "What?")
			errs <- err
		}()
	}
	<-env.gen.started
	require.Eventually(t, func() bool {
		env.qa.gate.mu.Lock()
		defer env.qa.gate.mu.Unlock()
		slot := env.qa.gate.slots["s1"]
		return slot != nil && slot.refs == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(env.gen.release)

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	require.Equal(t, int32(1), env.gen.calls.Load())
	entries, err := env.log.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestAsk_JoinedCallerSurvivesFirstCallerCancel(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.pdf", "text")
	env.gen.started = make(chan struct{}, 4)
	env.gen.release = make(chan struct{})

	firstCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := env.qa.Ask(firstCtx, "s1", "What?")
		firstErr <- err
	}()
	<-env.gen.started

	type result struct {
		ans *model.Answer
		err error
	}
	joined := make(chan result, 1)
	go func() {
		ans, err := env.qa.Ask(context.Background(), "s1", "What?")
		joined <- result{ans, err}
	}()
	require.Eventually(t, func() bool {
		env.qa.gate.mu.Lock()
		defer env.qa.gate.mu.Unlock()
		slot := env.qa.gate.slots["s1"]
		return slot != nil && slot.refs == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	// the shared run is still going, so the session stays busy
	_, err := env.qa.Ask(context.Background(), "s1", "Something else?")
	require.ErrorIs(t, err, appErr.ErrBusy)

	close(env.gen.release)
	res := <-joined
	require.NoError(t, res.err)
	require.Equal(t, "answer to What?", res.ans.Answer)
	require.Equal(t, int32(1), env.gen.calls.Load())

	require.Eventually(t, func() bool {
		env.qa.gate.mu.Lock()
		defer env.qa.gate.mu.Unlock()
		return len(env.qa.gate.slots) == 0
	}, time.Second, 5*time.Millisecond)
	entries, err := env.log.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestTopQueries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	top, err := env.qa.TopQueries(ctx)
	require.NoError(t, err)
	require.NotNil(t, top)
	require.Empty(t, top)

	require.NoError(t, env.log.Append(ctx, "What is X?", "a"))
	require.NoError(t, env.log.Append(ctx, "Who wrote Y?", "b"))
	require.NoError(t, env.log.Append(ctx, "What is X?", "c"))
	top, err = env.qa.TopQueries(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.TopQuery{
		{Query: "What is X?", Count: 2},
		{Query: "Who wrote Y?", Count: 1},
	}, top)
}
