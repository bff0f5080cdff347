package convo

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convocli/convo/config"
	"github.com/convocli/convo/core"
	"github.com/convocli/convo/export"
	"github.com/convocli/convo/logging"
	"github.com/convocli/convo/model"
)

func openTestAgent(t *testing.T, mock *model.MockModel) *Agent {
	t.Helper()
	root := t.TempDir()
	a, err := Open("test-agent", func(o *Options) {
		o.Root = root
		o.Model = mock
		o.Logger = logging.NoOpLogger{}
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpen_MaterializesLayoutAndConfig(t *testing.T) {
	root := t.TempDir()
	a, err := Open("fresh", func(o *Options) {
		o.Root = root
		o.Model = model.NewMockModel()
		o.Logger = logging.NoOpLogger{}
	})
	require.NoError(t, err)
	defer a.Close()

	for _, sub := range []string{"uploads", "exports", "backups"} {
		_, err := os.Stat(root + "/fresh/" + sub)
		assert.NoError(t, err, sub)
	}
	_, err = os.Stat(root + "/fresh/config.yaml")
	assert.NoError(t, err)
	assert.Equal(t, config.VariantFull, a.Config().Model)
	assert.Equal(t, config.EffortMedium, a.Config().ReasoningEffort)
}

func TestOpen_SecondOpenOfSameAgentIsLocked(t *testing.T) {
	root := t.TempDir()
	opt := func(o *Options) {
		o.Root = root
		o.Model = model.NewMockModel()
		o.Logger = logging.NoOpLogger{}
	}
	a, err := Open("solo", opt)
	require.NoError(t, err)
	defer a.Close()

	_, err = Open("solo", opt)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLocked)
}

func TestOpen_LockReleasedOnClose(t *testing.T) {
	root := t.TempDir()
	opt := func(o *Options) {
		o.Root = root
		o.Model = model.NewMockModel()
		o.Logger = logging.NoOpLogger{}
	}
	a, err := Open("cycle", opt)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := Open("cycle", opt)
	require.NoError(t, err)
	b.Close()
}

func TestSend_AppendsUserAndAssistantTurns(t *testing.T) {
	mock := model.NewMockModel()
	mock.AddResponse("Hello", "Hi there")
	a := openTestAgent(t, mock)

	turn, err := a.Send(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, turn.Role)
	assert.Equal(t, "Hi there", turn.Content)

	h, err := a.History()
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, core.RoleUser, h[0].Role)
	assert.Equal(t, "Hello", h[0].Content)
	assert.Equal(t, core.RoleAssistant, h[1].Role)
	assert.Equal(t, 1, h[0].Seq)
	assert.Equal(t, 2, h[1].Seq)
}

func TestSend_StreamsFragmentsInOrder(t *testing.T) {
	mock := model.NewMockModel()
	mock.AddResponse("stream it", "abc")
	a := openTestAgent(t, mock)

	var got []string
	_, err := a.Send(context.Background(), "stream it", func(o *SendOptions) {
		o.OnFragment = func(s string) { got = append(got, s) }
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSend_PerCallOverridesDoNotPersist(t *testing.T) {
	mock := model.NewMockModel()
	a := openTestAgent(t, mock)

	temp := 0.2
	_, err := a.Send(context.Background(), "hi", func(o *SendOptions) {
		o.Effort = config.EffortHigh
		o.Temperature = &temp
		o.NoStream = true
	})
	require.NoError(t, err)

	cfg := a.Config()
	assert.Equal(t, config.EffortMedium, cfg.ReasoningEffort)
	assert.Equal(t, 1.0, cfg.Temperature)
	assert.True(t, cfg.Stream)
}

func TestSend_InvalidOverrideRejectedBeforeCall(t *testing.T) {
	mock := model.NewMockModel()
	a := openTestAgent(t, mock)

	temp := 3.5
	_, err := a.Send(context.Background(), "hi", func(o *SendOptions) {
		o.Temperature = &temp
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)

	h, err := a.History()
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestSend_MissingInclusionFileAborts(t *testing.T) {
	mock := model.NewMockModel()
	a := openTestAgent(t, mock)
	t.Chdir(t.TempDir())

	_, err := a.Send(context.Background(), "read {absent.txt}")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)

	h, err := a.History()
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestSetConfig_InvalidRejectedWithoutSideEffects(t *testing.T) {
	a := openTestAgent(t, model.NewMockModel())

	bad := a.Config()
	bad.Temperature = -1
	err := a.SetConfig(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 1.0, a.Config().Temperature)
}

func TestSetConfig_PersistsAcrossReopen(t *testing.T) {
	root := t.TempDir()
	opt := func(o *Options) {
		o.Root = root
		o.Model = model.NewMockModel()
		o.Logger = logging.NoOpLogger{}
	}
	a, err := Open("keeper", opt)
	require.NoError(t, err)

	cfg := a.Config()
	cfg.Model = config.VariantMini
	cfg.ReasoningEffort = config.EffortLow
	cfg.SystemPrompt = "be brief"
	require.NoError(t, a.SetConfig(cfg))
	require.NoError(t, a.Close())

	b, err := Open("keeper", opt)
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, config.VariantMini, b.Config().Model)
	assert.Equal(t, config.EffortLow, b.Config().ReasoningEffort)
	assert.Equal(t, "be brief", b.Config().SystemPrompt)
}

func TestExport_PlainTextScenario(t *testing.T) {
	mock := model.NewMockModel()
	mock.AddResponse("Hello", "Hi there")
	a := openTestAgent(t, mock)

	_, err := a.Send(context.Background(), "Hello")
	require.NoError(t, err)

	path, err := a.Export(export.FormatText)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "USER: Hello\nASSISTANT: Hi there\n", string(data))

	stats, err := a.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UserTurns)
	assert.Equal(t, 1, stats.AssistantTurns)
}

func TestExport_JSONRoundTrip(t *testing.T) {
	mock := model.NewMockModel()
	mock.AddResponse("ping", "pong")
	a := openTestAgent(t, mock)
	_, err := a.Send(context.Background(), "ping")
	require.NoError(t, err)

	path, err := a.Export(export.FormatJSON)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	c, err := export.ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "test-agent", c.AgentID)
	require.Len(t, c.Turns, 2)
	assert.Equal(t, "pong", c.Turns[1].Content)
}

func TestSearch_LimitAndPreview(t *testing.T) {
	mock := model.NewMockModel()
	a := openTestAgent(t, mock)
	for _, msg := range []string{"alpha one", "alpha two", "alpha three"} {
		_, err := a.Send(context.Background(), msg)
		require.NoError(t, err)
	}

	results, err := a.Search("ALPHA", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha one", results[0].Turn.Content)
	assert.True(t, strings.Contains(results[0].Preview, "alpha"))

	all, err := a.Search("alpha", 0)
	require.NoError(t, err)
	assert.Greater(t, len(all), 2)
}

func TestClearAndRecover(t *testing.T) {
	mock := model.NewMockModel()
	mock.AddResponse("Hello", "Hi there")
	a := openTestAgent(t, mock)

	_, err := a.Send(context.Background(), "Hello")
	require.NoError(t, err)
	require.NoError(t, a.Clear())

	h, err := a.History()
	require.NoError(t, err)
	assert.Empty(t, h)

	recovered, err := a.Recover()
	require.NoError(t, err)
	require.Len(t, recovered, 2)
	assert.Equal(t, "Hello", recovered[0].Content)

	backups, err := a.Backups()
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
}

func TestInfo_SummarizesAgent(t *testing.T) {
	mock := model.NewMockModel()
	mock.AddResponse("Hello", "Hi there")
	a := openTestAgent(t, mock)
	_, err := a.Send(context.Background(), "Hello")
	require.NoError(t, err)

	info, err := a.Info()
	require.NoError(t, err)
	assert.Equal(t, "test-agent", info.ID)
	assert.Equal(t, config.VariantFull, info.Config.Model)
	assert.Equal(t, a.Config().Timeout(), info.Timeout)
	assert.Equal(t, 2, info.Stats.TotalTurns)
}

func TestSend_FailureLeavesHistoryEmpty(t *testing.T) {
	mock := model.NewMockModel()
	upstream := errors.New("rate limited")
	mock.FailWith = upstream
	a := openTestAgent(t, mock)

	_, err := a.Send(context.Background(), "Hello")
	require.Error(t, err)

	h, err := a.History()
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestListAgents(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"bravo", "alpha"} {
		a, err := Open(id, func(o *Options) {
			o.Root = root
			o.Model = model.NewMockModel()
			o.Logger = logging.NoOpLogger{}
		})
		require.NoError(t, err)
		require.NoError(t, a.Close())
	}

	ids, err := ListAgents(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo"}, ids)

	none, err := ListAgents(root + "/missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
