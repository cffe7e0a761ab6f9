package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/schema"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out, errOut bytes.Buffer
	cmd := NewCommand(IOStreams{In: strings.NewReader(stdin), Out: &out, ErrOut: &errOut})
	cmd.SetArgs(append([]string{"--env-file="}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestToolsCommand(t *testing.T) {
	out, _, err := run(t, "", "tools")
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	for _, name := range []string{"fetch_html", "fetch_txt", "send_sms", "get_device_info"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output:\n%s", name, out)
		}
	}

	out, _, err = run(t, "", "tools", "--server.device=false", "--schema")
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	if strings.Contains(out, "send_sms") || !strings.Contains(out, "url:string*") {
		t.Fatalf("unexpected filtered output:\n%s", out)
	}
}

func TestToolsCommandFilter(t *testing.T) {
	out, _, err := run(t, "", "tools", "sms")
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	if !strings.Contains(out, "send_sms") || strings.Contains(out, "fetch_html") {
		t.Fatalf("unexpected filter output:\n%s", out)
	}
}

func TestCallCommandErrorResult(t *testing.T) {
	_, errOut, err := run(t, "", "call", "fetch_html", `{"url":"not-a-url"}`)
	if !errors.Is(err, ErrToolFailed) {
		t.Fatalf("expected ErrToolFailed, got %v", err)
	}
	if !strings.Contains(errOut, "Invalid URL: not-a-url") {
		t.Fatalf("unexpected stderr: %q", errOut)
	}
}

func TestCallCommandDeviceInfo(t *testing.T) {
	out, _, err := run(t, "", "call", "get_device_info")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("device info is not json: %v\n%s", err, out)
	}
	if info["os"] == nil {
		t.Fatalf("missing os in %v", info)
	}
}

func TestCallCommandUnknownTool(t *testing.T) {
	_, _, err := run(t, "", "call", "fetch_htm")
	if err == nil || !strings.Contains(err.Error(), "did you mean fetch_html") {
		t.Fatalf("expected a suggestion, got %v", err)
	}
}

func TestParseArguments(t *testing.T) {
	args, err := parseArguments([]string{"https://example.com"}, map[string]string{"Accept": "text/html"})
	if err != nil {
		t.Fatal(err)
	}
	if args["url"] != "https://example.com" {
		t.Fatalf("url shorthand not applied: %v", args)
	}
	if h, ok := args["headers"].(map[string]any); !ok || h["Accept"] != "text/html" {
		t.Fatalf("headers not merged: %v", args)
	}
	if _, err := parseArguments([]string{"{broken"}, nil); err == nil {
		t.Fatalf("expected a json error")
	}
}

func TestSanitizeCommand(t *testing.T) {
	history := `[
		{"role":"user","content":"hi"},
		{"role":"assistant","content":"","tool_calls":[{"id":"a","type":"function","function":{"name":"fetch_txt","arguments":"{}"}}]},
		{"role":"tool","tool_call_id":"a","content":"page"},
		{"role":"tool","tool_call_id":"zzz","content":"stray"},
		{"role":"tool","tool_call_id":"yyy","content":"  "}
	]`
	out, _, err := run(t, history, "sanitize")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	var msgs []schema.Message
	if err := json.Unmarshal([]byte(out), &msgs); err != nil {
		t.Fatalf("output is not a message array: %v\n%s", err, out)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[2].Role != schema.RoleTool || msgs[3].Role != schema.RoleAssistant || msgs[3].Content != "stray" {
		t.Fatalf("unexpected sanitized history: %+v", msgs)
	}
}

func TestSanitizeCommandRejectsBadInput(t *testing.T) {
	if _, _, err := run(t, `[{"role":"robot","content":"x"}]`, "sanitize"); err == nil {
		t.Fatalf("expected a validation error")
	}
}

func TestSuggest(t *testing.T) {
	names := []string{"fetch_html", "fetch_markdown", "fetch_txt", "fetch_json", "send_sms"}
	got := suggest("fetch_jsno", names)
	if len(got) == 0 || got[0] != "fetch_json" {
		t.Fatalf("unexpected suggestions: %v", got)
	}
	if got := suggest("zzzzzzzzzzzz", names); len(got) != 0 {
		t.Fatalf("expected no suggestions, got %v", got)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "toolbridge "+Version) {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestChatRequiresAPIKey(t *testing.T) {
	t.Setenv("TOOLBRIDGE_MODEL_API_KEY", "")
	if _, _, err := run(t, "", "chat", "hello"); err == nil {
		t.Fatalf("expected an error without an api key")
	}
}
