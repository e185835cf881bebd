package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsTracker/internal/domain"
)

type call struct {
	topic string
	day   string
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   []call
	failDay map[string]error
	panicOn string
}

func (r *fakeRunner) Run(_ context.Context, topic string, day time.Time) (Report, error) {
	key := day.Format(time.DateOnly)
	r.mu.Lock()
	r.calls = append(r.calls, call{topic, key})
	r.mu.Unlock()

	if key == r.panicOn {
		panic("classifier exploded")
	}
	if err := r.failDay[key]; err != nil {
		return Report{Topic: topic}, err
	}
	return Report{Topic: topic, Fetched: 2, Stored: 2}, nil
}

func (r *fakeRunner) days() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.calls {
		if len(out) == 0 || out[len(out)-1] != c.day {
			out = append(out, c.day)
		}
	}
	return out
}

type fakeScheduler struct {
	triggers []time.Time
}

func (s *fakeScheduler) Run(ctx context.Context, job func(ctx context.Context, trigger time.Time)) error {
	for _, t := range s.triggers {
		job(ctx, t)
	}
	return context.Canceled
}

type fakeNotifier struct {
	digests []string
	err     error
}

func (n *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return n.err
}

func end() time.Time {
	return time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
}

func TestBackfillBoundedWalksBackwards(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	o := NewOrchestrator(OrchestratorDeps{Job: runner, Topics: []string{"AI", "Cloud"}})

	days := 3
	require.NoError(t, o.Backfill(context.Background(), end(), &days))

	assert.Equal(t, []call{
		{"AI", "2024-03-10"}, {"Cloud", "2024-03-10"},
		{"AI", "2024-03-09"}, {"Cloud", "2024-03-09"},
		{"AI", "2024-03-08"}, {"Cloud", "2024-03-08"},
	}, runner.calls)
}

func TestBackfillBoundedSurvivesFailingDay(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{failDay: map[string]error{"2024-03-09": errors.New("upstream 500")}}
	o := NewOrchestrator(OrchestratorDeps{Job: runner, Topics: []string{"AI"}})

	days := 3
	require.NoError(t, o.Backfill(context.Background(), end(), &days))
	assert.Equal(t, []string{"2024-03-10", "2024-03-09", "2024-03-08"}, runner.days())
}

func TestBackfillBoundedSurvivesPanickingDay(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{panicOn: "2024-03-09"}
	o := NewOrchestrator(OrchestratorDeps{Job: runner, Topics: []string{"AI"}})

	days := 3
	require.NoError(t, o.Backfill(context.Background(), end(), &days))
	assert.Equal(t, []string{"2024-03-10", "2024-03-09", "2024-03-08"}, runner.days())
}

func TestBackfillUnboundedStopsOnPanic(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{panicOn: "2024-03-09"}
	o := NewOrchestrator(OrchestratorDeps{Job: runner, Topics: []string{"AI"}})

	require.NoError(t, o.Backfill(context.Background(), end(), nil))
	assert.Equal(t, []string{"2024-03-10", "2024-03-09"}, runner.days())
}

func TestBackfillRejectsNonPositiveDays(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(OrchestratorDeps{Job: &fakeRunner{}, Topics: []string{"AI"}})
	zero := 0
	assert.Error(t, o.Backfill(context.Background(), end(), &zero))
}

func TestBackfillUnboundedStopsAtFirstError(t *testing.T) {
	t.Parallel()

	for name, stopErr := range map[string]error{
		"history limit": fmt.Errorf("fetch: %w", domain.ErrNoMoreData),
		"other failure": errors.New("connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{failDay: map[string]error{"2024-03-07": stopErr, "2024-03-05": stopErr}}
			o := NewOrchestrator(OrchestratorDeps{Job: runner, Topics: []string{"AI"}})

			require.NoError(t, o.Backfill(context.Background(), end(), nil))
			assert.Equal(t, []string{"2024-03-10", "2024-03-09", "2024-03-08", "2024-03-07"}, runner.days())
		})
	}
}

func TestBackfillReturnsContextError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(OrchestratorDeps{Job: &fakeRunner{}, Topics: []string{"AI"}})
	assert.ErrorIs(t, o.Backfill(ctx, end(), nil), context.Canceled)
}

func TestRunDayContinuesAfterTopicFailure(t *testing.T) {
	t.Parallel()

	runner := &topicFailRunner{fail: "AI"}
	o := NewOrchestrator(OrchestratorDeps{Job: runner, Topics: []string{"AI", "Cloud"}})

	err := o.RunDay(context.Background(), end())
	require.Error(t, err)
	assert.Equal(t, []string{"AI", "Cloud"}, runner.topics)
}

type topicFailRunner struct {
	fail   string
	topics []string
}

func (r *topicFailRunner) Run(_ context.Context, topic string, _ time.Time) (Report, error) {
	r.topics = append(r.topics, topic)
	if topic == r.fail {
		return Report{Topic: topic}, errors.New("boom")
	}
	return Report{Topic: topic}, nil
}

func TestMaintainRunsScheduledDaysAndNotifies(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{failDay: map[string]error{"2024-03-12": errors.New("upstream down")}}
	notifier := &fakeNotifier{}
	sched := &fakeScheduler{triggers: []time.Time{
		time.Date(2024, 3, 11, 23, 55, 0, 0, time.UTC),
		time.Date(2024, 3, 12, 23, 55, 0, 0, time.UTC),
		time.Date(2024, 3, 13, 23, 55, 0, 0, time.UTC),
	}}
	o := NewOrchestrator(OrchestratorDeps{
		Job:       runner,
		Topics:    []string{"AI"},
		Scheduler: sched,
		Notifier:  notifier,
	})

	require.NoError(t, o.Maintain(context.Background()))
	assert.Equal(t, []string{"2024-03-11", "2024-03-12", "2024-03-13"}, runner.days())

	require.Len(t, notifier.digests, 2, "a day with no successful topic sends nothing")
	assert.Contains(t, notifier.digests[0], "2024-03-11")
	assert.Contains(t, notifier.digests[0], "*AI*: 2 fetched, 2 stored")
	assert.Contains(t, notifier.digests[1], "2024-03-13")
}

func TestMaintainRecoversFromPanickingRun(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{panicOn: "2024-03-11"}
	sched := &fakeScheduler{triggers: []time.Time{
		time.Date(2024, 3, 11, 23, 55, 0, 0, time.UTC),
		time.Date(2024, 3, 12, 23, 55, 0, 0, time.UTC),
	}}
	o := NewOrchestrator(OrchestratorDeps{Job: runner, Topics: []string{"AI"}, Scheduler: sched})

	require.NoError(t, o.Maintain(context.Background()))
	assert.Equal(t, []string{"2024-03-11", "2024-03-12"}, runner.days())
}

func TestMaintainWithoutScheduler(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(OrchestratorDeps{Job: &fakeRunner{}})
	assert.Error(t, o.Maintain(context.Background()))
}

func TestOrchestratorTruncatesInLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-5", -5*60*60)
	runner := &fakeRunner{}
	o := NewOrchestrator(OrchestratorDeps{Job: runner, Topics: []string{"AI"}, Location: loc})

	// 02:00 UTC on the 11th is still the 10th five hours west
	require.NoError(t, o.RunDay(context.Background(), time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"2024-03-10"}, runner.days())
}
