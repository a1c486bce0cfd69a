// Command code-runner exposes the in-process execution engine as MCP tools
// over stdio.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/config"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/engine"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/logging"
)

// maxToolOutput caps the text returned to the client.
const maxToolOutput = 4000

func main() {
	cfg, err := config.Load(os.Getenv("ASSESS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	eng, err := engine.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine error: %v\n", err)
		os.Exit(1)
	}

	if err := server.ServeStdio(newServer(eng)); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
	}
}

func newServer(eng *engine.Engine) *server.MCPServer {
	s := server.NewMCPServer("assess-code-runner", "0.1.0")
	t := &tools{engine: eng}

	langs := make([]string, 0, len(execution.Languages()))
	for _, lang := range execution.Languages() {
		if eng.Sandbox.Policy.IsLanguageAllowed(lang) {
			langs = append(langs, string(lang))
		}
	}

	s.AddTool(mcp.Tool{
		Name:        "code_run",
		Description: fmt.Sprintf("Execute a snippet in the sandbox. Supported languages: %s.", strings.Join(langs, ", ")),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"language": map[string]any{
					"type":        "string",
					"description": "Programming language (" + strings.Join(langs, ", ") + ")",
				},
				"code": map[string]any{
					"type":        "string",
					"description": "Source code to execute",
				},
				"stdin": map[string]any{
					"type":        "string",
					"description": "Standard input to provide to the program (optional)",
				},
			},
			Required: []string{"language", "code"},
		},
	}, t.handleCodeRun)

	s.AddTool(mcp.Tool{
		Name:        "code_test",
		Description: "Grade a solution against a question's test cases. Only the first test case is shown in full.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"question_id": map[string]any{
					"type":        "string",
					"description": "Question to grade against",
				},
				"code": map[string]any{
					"type":        "string",
					"description": "Solution source code",
				},
			},
			Required: []string{"question_id", "code"},
		},
	}, t.handleCodeTest)

	s.AddTool(mcp.Tool{
		Name:        "question_list",
		Description: "List the available questions.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, t.handleQuestionList)

	return s
}

type tools struct {
	engine *engine.Engine
}

func (t *tools) handleCodeRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return errResult("error: invalid arguments"), nil
	}

	language, _ := args["language"].(string)
	code, _ := args["code"].(string)
	stdin, _ := args["stdin"].(string)

	if language == "" || code == "" {
		return errResult("error: 'language' and 'code' are required"), nil
	}

	lang, err := execution.ParseLanguage(language)
	if err != nil {
		return errResult(fmt.Sprintf("error: %v", err)), nil
	}

	result := t.engine.Run(ctx, execution.Request{Language: lang, Source: code, Stdin: stdin}, 0)

	var output strings.Builder
	output.WriteString(result.Stdout)
	if result.Error != nil {
		if output.Len() > 0 {
			output.WriteString("\n")
		}
		output.WriteString(result.Error.String())
		if result.Error.Detail != "" {
			output.WriteString("\n" + result.Error.Detail)
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: truncate(output.String())}},
		IsError: result.Error != nil,
	}, nil
}

func (t *tools) handleCodeTest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return errResult("error: invalid arguments"), nil
	}

	questionID, _ := args["question_id"].(string)
	code, _ := args["code"].(string)
	if questionID == "" || code == "" {
		return errResult("error: 'question_id' and 'code' are required"), nil
	}

	q, err := t.engine.Question(questionID)
	if err != nil {
		return errResult(fmt.Sprintf("error: %v", err)), nil
	}

	summary := t.engine.GradePublic(ctx, q, code)
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("error: %v", err)), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: truncate(string(data))}},
		IsError: !summary.AllPassed(),
	}, nil
}

func (t *tools) handleQuestionList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	for _, q := range t.engine.Questions.List() {
		fmt.Fprintf(&b, "%s\t%s\t%s\n", q.ID, q.Language, q.Title)
	}
	if b.Len() == 0 {
		b.WriteString("no questions loaded")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: b.String()}},
	}, nil
}

func truncate(text string) string {
	if len(text) > maxToolOutput {
		return text[:maxToolOutput] + "\n... (output truncated)"
	}
	return text
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
