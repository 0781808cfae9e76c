package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// workerModeEnv switches the test binary into a fake stdio worker.
const workerModeEnv = "GATEWAY_TEST_WORKER"

func TestMain(m *testing.M) {
	if mode := os.Getenv(workerModeEnv); mode != "" {
		os.Exit(runTestWorker(mode))
	}
	os.Exit(m.Run())
}

// testWorkerCommand returns the argv and env that start the fake worker.
func testWorkerCommand(mode string) ([]string, []string) {
	return []string{os.Args[0]}, []string{workerModeEnv + "=" + mode}
}

type testInbound struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func runTestWorker(mode string) int {
	out := bufio.NewWriter(os.Stdout)
	emit := func(s string) {
		out.WriteString(s)
		out.Flush()
	}

	switch mode {
	case "exit":
		return 3
	case "mcp":
		return runMCPWorker()
	case "sleep":
		time.Sleep(time.Hour)
		return 0
	case "grandchild":
		// Leaves a child holding our stdout, the way npx or a shell would.
		if !startSleepingChild() {
			return 1
		}
		time.Sleep(time.Hour)
		return 0
	case "orphan":
		// Same, but exits after the request and leaves the child behind.
		if !startSleepingChild() {
			return 1
		}
		bufio.NewReader(os.Stdin).ReadString('\n')
		return 0
	case "silent-exit":
		// Consume the request, then leave without answering.
		bufio.NewReader(os.Stdin).ReadString('\n')
		return 0
	}

	fmt.Fprintln(os.Stderr, "worker diagnostics that must never reach the client")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		var in testInbound
		if err := json.Unmarshal(scanner.Bytes(), &in); err != nil {
			continue
		}
		if len(in.ID) == 0 || in.Method == "" {
			continue
		}
		params := in.Params
		if len(params) == 0 {
			params = json.RawMessage("null")
		}
		resp := fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"result":{"method":%q,"params":%s,"pid":%d}}`,
			in.ID, in.Method, params, os.Getpid())

		switch mode {
		case "echo":
			emit(resp + "\n")
		case "chunked":
			note := `{"jsonrpc":"2.0","method":"notifications/message","params":{"level":"info"}}`
			whole := note + "\r\n" + resp + "\r\n"
			for i := 0; i < len(whole); i += 7 {
				emit(whole[i:min(i+7, len(whole))])
				time.Sleep(time.Millisecond)
			}
		case "garbage":
			emit(`{"jsonrpc":"2.0","method":"notifications/message","params":{"line":1}}` + "\n")
			emit("NOTJSON\n")
			emit(resp + "\n")
		case "hang":
			time.Sleep(time.Hour)
		default:
			fmt.Fprintf(os.Stderr, "unknown worker mode %q\n", mode)
			return 2
		}
	}
	return 0
}

// startSleepingChild starts a child that shares our stdout and announces its
// pid on it.
func startSleepingChild() bool {
	child := exec.Command(os.Args[0])
	child.Env = append(os.Environ(), workerModeEnv+"=sleep")
	child.Stdout = os.Stdout
	if err := child.Start(); err != nil {
		return false
	}
	fmt.Printf(`{"jsonrpc":"2.0","method":"notifications/started","params":{"child":%d}}`+"\n", child.Process.Pid)
	return true
}

// runMCPWorker serves a real MCP server with one echo tool over stdio.
func runMCPWorker() int {
	s := server.NewMCPServer("helper-worker", "0.0.1", server.WithToolCapabilities(false))
	s.AddTool(
		mcp.NewTool("echo",
			mcp.WithDescription("Echoes its input"),
			mcp.WithString("text", mcp.Required()),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, err := request.RequireString("text")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("%s from %d", text, os.Getpid())), nil
		},
	)
	if err := server.NewStdioServer(s).Listen(context.Background(), os.Stdin, os.Stdout); err != nil {
		return 1
	}
	return 0
}
