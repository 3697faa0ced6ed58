// Package crew runs a fixed sequence of model-backed tasks. Each task binds
// an agent persona to an instruction, consumes the outputs of earlier tasks
// as context, and may persist its result through an output sink.
package crew

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Abby263/grocery-tracking-agent/internal/llm"
)

// Tool supplies research notes for a task prompt
type Tool interface {
	// Name identifies the tool in logs
	Name() string
	// Research returns plain-text notes for the query, or "" when nothing was found
	Research(ctx context.Context, query string) (string, error)
}

// OutputSink persists task artifacts
type OutputSink interface {
	Save(filename string, data []byte) (string, error)
}

// Agent is a model persona: who the model is told to be while it works on a
// task. An agent may carry a research tool.
type Agent struct {
	Role        string
	Goal        string
	Backstory   string
	Personality string
	Tool        Tool
}

// systemPrompt renders the persona as the system instruction for the model.
func (a *Agent) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.\n\n%s\n\nYour personal goal is: %s", a.Role, a.Backstory, a.Goal)
	if a.Personality != "" {
		fmt.Fprintf(&b, "\n\nPersonality: %s", a.Personality)
	}
	return b.String()
}

// Task is one unit of work for an agent.
type Task struct {
	Name        string
	Agent       *Agent
	Description string
	// ExpectedOutput describes the shape of the answer and is appended to
	// the prompt verbatim.
	ExpectedOutput string
	// Context lists upstream tasks whose outputs embed into this prompt.
	Context []*Task
	// OutputFile, when set, persists the result through the sink.
	OutputFile string
	// ExpectsJSON requires a JSON object in the response; extraction
	// failure fails the task.
	ExpectsJSON bool
	// ToolQuery builds the research query for the agent's tool from the
	// outputs produced so far. Returning "" skips research.
	ToolQuery func(outputs map[string]TaskOutput) string
}

// TaskOutput is the result of one completed task
type TaskOutput struct {
	// Raw is the fence-stripped model response
	Raw string
	// JSON is the extracted JSON object when the task expects one
	JSON string
	// File is the sink path the output was saved to, if any
	File string
}

// Context returns the best representation of the output for a downstream
// prompt: the extracted JSON when present, the raw text otherwise.
func (o TaskOutput) Context() string {
	if o.JSON != "" {
		return o.JSON
	}
	return o.Raw
}

// Crew executes tasks strictly in order against a single provider. The first
// failing task fails the run; there is no retry.
type Crew struct {
	provider llm.Provider
	sink     OutputSink
	tasks    []*Task
}

// New creates a Crew over the given tasks
func New(provider llm.Provider, sink OutputSink, tasks []*Task) *Crew {
	return &Crew{provider: provider, sink: sink, tasks: tasks}
}

// Kickoff runs every task once, in order. It returns the outputs of all
// completed tasks; on error the map holds the tasks that finished before the
// failure.
func (c *Crew) Kickoff(ctx context.Context) (map[string]TaskOutput, error) {
	outputs := make(map[string]TaskOutput, len(c.tasks))
	for _, task := range c.tasks {
		slog.Info("Starting task", "task", task.Name, "agent", task.Agent.Role)
		out, err := c.runTask(ctx, task, outputs)
		if err != nil {
			return outputs, fmt.Errorf("task %s: %w", task.Name, err)
		}
		outputs[task.Name] = out
		slog.Info("Task complete", "task", task.Name, "bytes", len(out.Raw))
	}
	return outputs, nil
}

func (c *Crew) runTask(ctx context.Context, task *Task, outputs map[string]TaskOutput) (TaskOutput, error) {
	notes := c.research(ctx, task, outputs)
	prompt := buildTaskPrompt(task, outputs, notes)
	slog.Debug("Task prompt", "task", task.Name, "prompt", prompt)

	resp, err := c.provider.Generate(ctx, llm.Request{
		System: task.Agent.systemPrompt(),
		Prompt: prompt,
	})
	if err != nil {
		return TaskOutput{}, fmt.Errorf("generating: %w", err)
	}
	slog.Debug("Task response", "task", task.Name, "response", resp.Text)

	out := TaskOutput{Raw: llm.StripFences(resp.Text)}
	if out.Raw == "" {
		return TaskOutput{}, fmt.Errorf("empty response from model")
	}

	if task.ExpectsJSON {
		extracted, err := llm.ExtractJSON(out.Raw)
		if err != nil {
			return TaskOutput{}, fmt.Errorf("extracting JSON: %w", err)
		}
		out.JSON = extracted
	}

	if task.OutputFile != "" && c.sink != nil {
		path, err := c.sink.Save(task.OutputFile, []byte(out.Context()))
		if err != nil {
			return TaskOutput{}, fmt.Errorf("saving output: %w", err)
		}
		out.File = path
		slog.Info("Task output saved", "task", task.Name, "file", path)
	}

	return out, nil
}

// research runs the agent's tool, if any. Tool failures degrade to a logged
// warning and empty notes; retrieval never fails the task.
func (c *Crew) research(ctx context.Context, task *Task, outputs map[string]TaskOutput) string {
	if task.Agent.Tool == nil || task.ToolQuery == nil {
		return ""
	}
	query := strings.TrimSpace(task.ToolQuery(outputs))
	if query == "" {
		return ""
	}
	notes, err := task.Agent.Tool.Research(ctx, query)
	if err != nil {
		slog.Warn("Research tool failed", "task", task.Name, "tool", task.Agent.Tool.Name(), "error", err)
		return ""
	}
	return notes
}

func buildTaskPrompt(task *Task, outputs map[string]TaskOutput, notes string) string {
	var b strings.Builder
	b.WriteString("Current task:\n")
	b.WriteString(task.Description)
	b.WriteString("\n")

	for _, upstream := range task.Context {
		out, ok := outputs[upstream.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\nThis is the output of the %s task, use it as context:\n%s\n", upstream.Name, out.Context())
	}

	if notes != "" {
		b.WriteString("\nResearch notes gathered from the web:\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}

	b.WriteString("\nThis is the expected criteria for your final answer:\n")
	b.WriteString(strings.TrimSpace(task.ExpectedOutput))
	if task.ExpectsJSON {
		b.WriteString("\n\nReturn ONLY a single JSON object matching this structure, with real values and no placeholder text.")
	}
	return b.String()
}
