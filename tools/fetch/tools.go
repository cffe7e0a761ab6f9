package fetch

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/voocel/toolbridge/tools"
)

// maxRenderBytes caps the Markdown and text renderings handed to the model.
const maxRenderBytes = tools.DefaultMaxBytes * 4

// transform turns a fetched body into the tool's output text.
type transform func(body string) (string, error)

// Tool is one member of the fetch family.
type Tool struct {
	*tools.BaseTool
	fetcher   *Fetcher
	transform transform
	// truncate is false for renderings that must stay exact, such as raw HTML
	// and JSON.
	truncate bool
}

func newTool(f *Fetcher, name, description string, fn transform, truncate bool) *Tool {
	schema := tools.CreateToolSchema(
		description,
		map[string]interface{}{
			"url":     tools.StringProperty("Absolute http or https URL to fetch"),
			"headers": tools.StringMapProperty("Optional request headers; these override the defaults"),
		},
		[]string{"url"},
	)
	base := tools.NewBaseTool(name, description, schema).
		WithCapabilities(tools.CapabilityNetwork)
	return &Tool{BaseTool: base, fetcher: f, transform: fn, truncate: truncate}
}

// Invoke validates the arguments, fetches and transforms. It never returns
// a Go error; every failure is an isError result.
func (t *Tool) Invoke(ctx context.Context, args map[string]any) (*tools.CallResult, error) {
	req, err := t.fetcher.ParseArgs(args)
	if err != nil {
		return tools.ErrorResult(err.Error()), nil
	}

	body, err := t.fetcher.Get(ctx, req)
	if err != nil {
		return failure(req, err), nil
	}

	out, err := t.transform(body)
	if err != nil {
		return tools.Errorf("Failed to process %s: %v", req.URL, err), nil
	}

	if !t.truncate {
		return tools.TextResult(out), nil
	}
	trunc := tools.TruncateHead(out, t.fetcher.opts.MaxLines, maxRenderBytes)
	return tools.TextResult(trunc.String()), nil
}

// NewHTMLTool returns fetch_html: the raw body.
func NewHTMLTool(f *Fetcher) *Tool {
	return newTool(f, ToolHTML, "Fetch a website and return the content as HTML", rawHTML, false)
}

// NewMarkdownTool returns fetch_markdown.
func NewMarkdownTool(f *Fetcher) *Tool {
	return newTool(f, ToolMarkdown, "Fetch a website and return the content as Markdown", toMarkdown, true)
}

// NewTextTool returns fetch_txt.
func NewTextTool(f *Fetcher) *Tool {
	return newTool(f, ToolText, "Fetch a website and return the content as plain text (no HTML)", toText, true)
}

// NewJSONTool returns fetch_json.
func NewJSONTool(f *Fetcher) *Tool {
	return newTool(f, ToolJSON, "Fetch a JSON file from a URL and return it pretty-printed", toJSON, false)
}

// Tools returns the family in the order the fetch server lists it.
func Tools(opts Options) []tools.Tool {
	f := NewFetcher(opts)
	return []tools.Tool{
		NewHTMLTool(f),
		NewMarkdownTool(f),
		NewTextTool(f),
		NewJSONTool(f),
	}
}

// NewRegistry builds the fetch server's registry.
func NewRegistry(opts Options) (*tools.Registry, error) {
	return tools.NewRegistry(Tools(opts)...)
}

func rawHTML(body string) (string, error) {
	return body, nil
}

func toMarkdown(body string) (string, error) {
	converter := md.NewConverter("", true, nil)
	return converter.ConvertString(body)
}

func toText(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// toJSON keeps the document's key order, which a decode into map would lose.
func toJSON(body string) (string, error) {
	var buf bytes.Buffer
	if err := stdjson.Indent(&buf, bytes.TrimSpace([]byte(body)), "", "  "); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return buf.String(), nil
}
