package agent

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkit/logging"
	"github.com/hupe1980/agentkit/model"
)

func textAgent(name, reply string) (*Agent, *model.ScriptedModel) {
	llm := model.NewScriptedModel(name).RespondText(reply)
	return New(name, llm), llm
}

func systemPrompt(llm *model.ScriptedModel) string {
	return llm.Requests()[0].Messages[0].Content
}

func TestMember_Label(t *testing.T) {
	a, _ := textAgent("writer", "x")
	assert.Equal(t, "editor", Member{Agent: a, Role: "editor"}.Label())
	assert.Equal(t, "writer", Member{Agent: a}.Label())
}

func TestTeam_AddIgnoresDuplicateAgent(t *testing.T) {
	a, llm := textAgent("a", "once")

	team := NewTeam().Add(a, "first", nil).Add(a, "second", nil)
	require.Len(t, team.Members(), 1)
	assert.Equal(t, "first", team.Members()[0].Label())

	res := team.RunParallel(context.Background(), "go")
	assert.Equal(t, []string{"first"}, res.AgentsUsed)
	assert.Equal(t, 1, llm.Calls())
}

func TestTeam_Sequential(t *testing.T) {
	researcher, rLLM := textAgent("researcher", "facts")
	writer, wLLM := textAgent("writer", "article")
	editor, eLLM := textAgent("editor", "polished article")

	team := NewTeam().
		Add(researcher, "research", nil).
		Add(writer, "write", nil).
		Add(editor, "edit", nil)

	res := team.RunSequential(context.Background(), "Write about Go", WithAdditionalContext("Audience: devs"))

	assert.Equal(t, "polished article", res.Content)
	assert.Equal(t, []string{"research", "write", "edit"}, res.AgentsUsed)
	require.Len(t, res.Results, 3)

	assert.Equal(t, DefaultInstruction+"\n\nAdditional context:\nAudience: devs", systemPrompt(rLLM))
	assert.Contains(t, systemPrompt(wLLM), "Audience: devs\n\nPrevious agent (research) output:\nfacts")
	assert.Contains(t, systemPrompt(eLLM), "Previous agent (research) output:\nfacts")
	assert.Contains(t, systemPrompt(eLLM), "Previous agent (write) output:\narticle")

	// Every member receives the original prompt.
	assert.Equal(t, "Write about Go", eLLM.Requests()[0].Messages[1].Content)
}

func TestTeam_SequentialSkipsNonMatching(t *testing.T) {
	a, _ := textAgent("a", "from a")
	b, bLLM := textAgent("b", "from b")

	team := NewTeam().
		Add(a, "a", nil).
		Add(b, "b", func(p string) bool { return strings.Contains(p, "never") })

	res := team.RunSequential(context.Background(), "hello")

	assert.Equal(t, []string{"a"}, res.AgentsUsed)
	assert.Equal(t, "from a", res.Content)
	assert.Equal(t, 0, bLLM.Calls())
}

func TestTeam_SequentialEmpty(t *testing.T) {
	res := NewTeam().RunSequential(context.Background(), "hello")

	assert.Empty(t, res.Results)
	assert.Empty(t, res.AgentsUsed)
	assert.Equal(t, "", res.Content)
}

func TestTeam_Parallel(t *testing.T) {
	tech, _ := textAgent("tech", "solid")
	biz, _ := textAgent("biz", "profitable")

	team := NewTeam().Add(tech, "technical", nil).Add(biz, "business", nil)

	res := team.RunParallel(context.Background(), "Evaluate")

	require.Len(t, res.Results, 2)
	assert.ElementsMatch(t, []string{"technical", "business"}, res.AgentsUsed)

	blocks := strings.Split(res.Content, ParallelDivider)
	assert.ElementsMatch(t, []string{"**technical**: solid", "**business**: profitable"}, blocks)
}

func TestTeam_ParallelDropsFailures(t *testing.T) {
	ok, _ := textAgent("ok", "fine")
	broken := New("broken", model.NewScriptedModel("broken").Fail(errors.New("down")))

	team := NewTeam().Add(ok, "ok", nil).Add(broken, "broken", nil)

	res := team.RunParallel(context.Background(), "go")

	assert.Equal(t, []string{"ok"}, res.AgentsUsed)
	assert.Equal(t, "**ok**: fine", res.Content)
}

func TestTeam_ParallelRecoversPanic(t *testing.T) {
	ok, _ := textAgent("ok", "fine")
	crashing := New("crashing", model.FuncModel(func(context.Context, model.Request) (*model.Response, error) {
		panic("boom")
	}))

	buf := &bytes.Buffer{}
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = buf

	team := NewTeam(func(o *TeamOptions) { o.Logger = logging.NewLogger(cfg) }).
		Add(ok, "ok", nil).
		Add(crashing, "crashing", nil)

	res := team.RunParallel(context.Background(), "go")

	assert.Equal(t, []string{"ok"}, res.AgentsUsed)
	assert.Contains(t, buf.String(), "team.member.panic")
	assert.Contains(t, buf.String(), "stack_trace")
}

func TestTeam_ParallelBoundedWorkers(t *testing.T) {
	var active, peak atomic.Int32
	slow := func(name string) *Agent {
		return New(name, model.FuncModel(func(ctx context.Context, req model.Request) (*model.Response, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
			return model.NewTextResponse(name), nil
		}))
	}

	team := NewTeam()
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		team.Add(slow(n), n, nil)
	}

	res := team.RunParallel(context.Background(), "go", WithWorkers(2))

	assert.Len(t, res.Results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestTeam_Handoff(t *testing.T) {
	billing, bLLM := textAgent("billing", "refund issued")
	tech, tLLM := textAgent("tech", "reboot it")
	general, gLLM := textAgent("general", "how can I help")

	team := NewTeam().
		Add(general, "general", nil).
		Add(billing, "billing", func(p string) bool { return strings.Contains(strings.ToLower(p), "refund") }).
		Add(tech, "tech", func(p string) bool { return strings.Contains(strings.ToLower(p), "error") })

	res := team.RunHandoff(context.Background(), "I want a refund")
	assert.Equal(t, []string{"billing"}, res.AgentsUsed)
	assert.Equal(t, "refund issued", res.Content)
	assert.Equal(t, 1, bLLM.Calls())
	assert.Equal(t, 0, tLLM.Calls())

	// No condition matches: the first member handles it, even without a condition.
	res = team.RunHandoff(context.Background(), "hello there")
	assert.Equal(t, []string{"general"}, res.AgentsUsed)
	assert.Equal(t, 1, gLLM.Calls())
}

func TestTeam_HandoffEmpty(t *testing.T) {
	res := NewTeam().RunHandoff(context.Background(), "anything")

	assert.Empty(t, res.Results)
	assert.Empty(t, res.AgentsUsed)
	assert.Equal(t, "", res.Content)
}

func TestTeam_RunDispatch(t *testing.T) {
	a, _ := textAgent("a", "answer")
	team := NewTeam().Add(a, "solo", nil)

	for _, mode := range []Mode{ModeSequential, ModeHandoff} {
		res, err := team.Run(context.Background(), mode, "q")
		require.NoError(t, err)
		assert.Equal(t, "answer", res.Content)
	}

	res, err := team.Run(context.Background(), ModeParallel, "q")
	require.NoError(t, err)
	assert.Equal(t, "**solo**: answer", res.Content)

	_, err = team.Run(context.Background(), Mode("round_robin"), "q")
	assert.Error(t, err)
}
