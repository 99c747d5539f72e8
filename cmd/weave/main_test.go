package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/weave/runtime/astfmt"
	"github.com/aledsdavies/weave/runtime/config"
)

type result struct {
	code           int
	stdout, stderr string
}

// project writes files under a temp dir with a weave.yaml and returns the
// dir.
func project(t *testing.T, cfg string, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weave.yaml"), []byte(cfg), 0o644))
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func weave(t *testing.T, dir, stdin string, args ...string) result {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	var stdout, stderr bytes.Buffer
	full := append([]string{"--no-color", "--config", filepath.Join(dir, "weave.yaml")}, args...)
	code := run(full, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestCompileText(t *testing.T) {
	dir := project(t, "", map[string]string{"page.weave.html": `<p t:if="ok">hi</p>`})

	r := weave(t, dir, "", "compile", filepath.Join(dir, "page.weave.html"))
	require.Equal(t, ExitSuccess, r.code, r.stderr)

	want := `Document
  HostCode "if (ok) {"
  Element <p>
    Text "hi"
  HostCode "}"
`
	assert.Equal(t, want, r.stdout)
	assert.Empty(t, r.stderr)
}

func TestCompileJSONFromStdin(t *testing.T) {
	dir := project(t, "", nil)

	r := weave(t, dir, `<b t:text="user.Name"></b>`, "compile", "--format", "json", "-")
	require.Equal(t, ExitSuccess, r.code, r.stderr)

	var tree astfmt.Tree
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &tree))
	assert.Equal(t, stdinName, tree.Path)
	require.Len(t, tree.Nodes, 1)
	out := tree.Nodes[0].Nodes[0].Output
	require.NotNil(t, out)
	assert.Equal(t, "user.Name", out.Expr)
	assert.Equal(t, "markup", out.Context)
}

func TestCompileConfigDefaults(t *testing.T) {
	dir := project(t, "format: json\ndigest: true\nprefix: w\n", map[string]string{
		"page.weave.html": `<p w:unless="ok">x</p>`,
	})

	r := weave(t, dir, "", "compile", filepath.Join(dir, "page.weave.html"))
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.True(t, json.Valid([]byte(r.stdout)))
	assert.Contains(t, r.stdout, `"text": "if !(ok) {"`)
	assert.Contains(t, r.stderr, "blake2b:")

	r = weave(t, dir, "", "compile", "--format", "text", "--digest=false", filepath.Join(dir, "page.weave.html"))
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.True(t, strings.HasPrefix(r.stdout, "Document\n"))
	assert.Empty(t, r.stderr)
}

func TestCompileDigestIsStable(t *testing.T) {
	dir := project(t, "", map[string]string{"a.weave.html": `<p>{{ a }}</p>`})
	path := filepath.Join(dir, "a.weave.html")

	first := weave(t, dir, "", "compile", "--digest", path)
	second := weave(t, dir, "", "compile", "--digest", path)
	require.Equal(t, ExitSuccess, first.code)
	assert.Equal(t, first.stderr, second.stderr)
	assert.True(t, strings.HasSuffix(first.stderr, "  "+path+"\n"))
}

func TestCompileOutFileAndCBOR(t *testing.T) {
	dir := project(t, "", map[string]string{"a.weave.html": `<p>{{ a }}</p>`})
	out := filepath.Join(dir, "a.cbor")

	r := weave(t, dir, "", "compile", "-F", "cbor", "-o", out, filepath.Join(dir, "a.weave.html"))
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Empty(t, r.stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	tree, err := astfmt.DecodeCBOR(data)
	require.NoError(t, err)
	assert.Equal(t, "p", tree.Nodes[0].Tag)
}

func TestCompileDirectory(t *testing.T) {
	dir := project(t, "include: [\"*.weave.html\"]\n", map[string]string{
		"b.weave.html":         `<i>b</i>`,
		"nested/a.weave.html":  `<i>a</i>`,
		"nested/notes.md":      `# not a template`,
		".hidden/x.weave.html": `<i>x</i>`,
	})

	r := weave(t, dir, "", "compile")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, 2, strings.Count(r.stdout, "== "))
	assert.Less(t, strings.Index(r.stdout, "b.weave.html"), strings.Index(r.stdout, "nested"))
	assert.NotContains(t, r.stdout, ".hidden")
}

func TestCompileUnsupportedFormat(t *testing.T) {
	dir := project(t, "", nil)

	r := weave(t, dir, "", "compile", "--format", "xml", "-")
	assert.Equal(t, ExitInvalidArguments, r.code)
	assert.Contains(t, r.stderr, `Error: unsupported format "xml"`)
	assert.Contains(t, r.stderr, "Hint: use text, json or cbor")
}

func TestCompileMissingFile(t *testing.T) {
	dir := project(t, "", nil)

	r := weave(t, dir, "", "compile", filepath.Join(dir, "nope.weave.html"))
	assert.Equal(t, ExitCompileError, r.code)
	assert.Contains(t, r.stderr, "not found")
	assert.Contains(t, r.stderr, "1 of 1 templates failed")
}

func TestCheckReportsDiagnostics(t *testing.T) {
	dir := project(t, "", map[string]string{
		"good.weave.html": `<p t:if="a">x</p>`,
		"bad.weave.html":  "<div>\n  <p t:fi=\"ok\">x</p>\n</div>",
	})

	r := weave(t, dir, "", "check", dir)
	assert.Equal(t, ExitCompileError, r.code)
	assert.Contains(t, r.stdout, "ok "+filepath.Join(dir, "good.weave.html"))
	assert.NotContains(t, r.stdout, "bad.weave.html")

	assert.Contains(t, r.stderr, filepath.Join(dir, "bad.weave.html")+`:2:6: unknown directive "fi"`)
	assert.Contains(t, r.stderr, `  <p t:fi="ok">x</p>`)
	assert.Contains(t, r.stderr, `^ did you mean "if"?`)
	assert.Contains(t, r.stderr, "Error: 1 of 2 templates failed")
}

func TestDirectives(t *testing.T) {
	dir := project(t, "component_namespace: ui\n", nil)

	r := weave(t, dir, "", "directives")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	lines := strings.Split(r.stdout, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "DIRECTIVE"))

	row := func(name string) string {
		for _, l := range lines {
			if strings.HasPrefix(l, name+" ") {
				return l
			}
		}
		return ""
	}
	assert.Contains(t, row("t:if"), "<ui-if test>")
	assert.Contains(t, row("t:if"), "elseif,else")
	assert.Contains(t, row("t:else"), "<ui-else>")
	assert.Contains(t, row("t:class"), "into class")
	assert.Contains(t, row("t:attributes"), "spread -class,-style")
	assert.NotEmpty(t, row("t:slot (pass-through)"))

	r = weave(t, dir, "", "--prefix", "w", "directives", "--json")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	var infos []directiveInfo
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &infos))
	assert.Equal(t, "attributes", infos[0].Name)
	for _, d := range infos {
		if d.Name == "foreach" {
			assert.Equal(t, []string{"empty"}, d.Followers)
			assert.Equal(t, "each", d.ExpressionAttr)
		}
	}
}

func TestRequiresNewerVersion(t *testing.T) {
	dir := project(t, "requires: \"99.0.0\"\n", nil)

	r := weave(t, dir, "", "directives")
	assert.Equal(t, ExitInvalidArguments, r.code)
	assert.Contains(t, r.stderr, "requires weave 99.0.0 or newer")
}

func TestInvalidConfig(t *testing.T) {
	dir := project(t, "format: xml\n", nil)

	r := weave(t, dir, "", "directives")
	assert.Equal(t, ExitInvalidArguments, r.code)
	assert.Contains(t, r.stderr, "Error: cannot load configuration")
}

func TestDebugOutput(t *testing.T) {
	dir := project(t, "", nil)

	r := weave(t, dir, `<p t:if="a">x</p>`, "--debug", "compile", "-")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stderr, "telemetry <stdin>:")
	assert.Contains(t, r.stderr, "1 restarts")
	assert.Contains(t, r.stderr, "directive-compilation")
	assert.Contains(t, r.stderr, "trace")
}

// syncBuffer is written by the watch loop while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchRecompilesOnChange(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.weave.html")
	require.NoError(t, os.WriteFile(page, []byte(`<p>{{ a }}</p>`), 0o644))

	var stdout, stderr syncBuffer
	a := &app{cfg: config.Default(), stdout: &stdout, stderr: &stderr}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.watch(ctx, dir, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "watching "+dir)
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, stdout.String(), "ok "+page)

	require.NoError(t, os.WriteFile(page, []byte(`<p t:fi="a">x</p>`), 0o644))
	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), `unknown directive "fi"`)
	}, 5*time.Second, 10*time.Millisecond)

	sub := filepath.Join(dir, "emails")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(50 * time.Millisecond)
	welcome := filepath.Join(sub, "welcome.weave.html")
	require.NoError(t, os.WriteFile(welcome, []byte(`<p>hi</p>`), 0o644))
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "ok "+welcome)
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(50 * time.Millisecond)
	assert.NotContains(t, stdout.String(), "notes.txt")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestShouldUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, ShouldUseColor(false, &buf))
	assert.False(t, ShouldUseColor(true, os.Stdout))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ShouldUseColor(false, os.Stdout))
}

func TestFormatError(t *testing.T) {
	var buf bytes.Buffer
	FormatError(&buf, &CLIError{Message: "boom", Details: "because", Hint: "try again"}, false)
	assert.Equal(t, "Error: boom\n\nbecause\nHint: try again\n", buf.String())

	buf.Reset()
	FormatError(&buf, &CLIError{Message: "boom"}, true)
	assert.Equal(t, ColorRed+"Error: "+ColorReset+"boom\n", buf.String())
}
