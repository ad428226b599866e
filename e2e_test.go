package elevatebox_test

import (
	"context"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/require"

	"github.com/elevatebox/elevatebox/internal/config"
	"github.com/elevatebox/elevatebox/internal/island"
	"github.com/elevatebox/elevatebox/internal/server"
	"github.com/elevatebox/elevatebox/internal/store"
)

// Browser tests need a local Chrome and are opt-in.
const e2eEnvVar = "ELEVATEBOX_E2E"

func setupChrome(t *testing.T, timeout time.Duration) (context.Context, func()) {
	t.Helper()
	if os.Getenv(e2eEnvVar) != "1" {
		t.Skipf("set %s=1 to run browser tests", e2eEnvVar)
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	if path := findChrome(); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(t.Logf))
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)

	return ctx, func() {
		timeoutCancel()
		ctxCancel()
		allocCancel()
	}
}

func findChrome() string {
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func startSite(t *testing.T, files map[string]string) (string, *store.MemorySink) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	sink := store.NewMemorySink()
	reg, err := island.NewDefaultRegistry(island.Deps{Sink: sink})
	require.NoError(t, err)
	srv, err := server.New(dir, config.DefaultConfig(), reg)
	require.NoError(t, err)
	require.NoError(t, srv.Discover())

	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return ts.URL, sink
}

func TestE2EContactSubmit(t *testing.T) {
	ctx, cleanup := setupChrome(t, 60*time.Second)
	defer cleanup()

	url, sink := startSite(t, map[string]string{
		"contact.md": "---\ntitle: Contact\n---\n# Contact\n\n```island contact\n```\n",
	})

	const root = `[data-island="contact"]`
	var label string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url+"/contact"),
		chromedp.WaitVisible(root+` .eb-contact`, chromedp.ByQuery),
		chromedp.SendKeys(root+` input[name="name"]`, "Joanna Doe", chromedp.ByQuery),
		chromedp.SendKeys(root+` input[name="email"]`, "joanna@example.com", chromedp.ByQuery),
		chromedp.SendKeys(root+` textarea[name="message"]`, "Please tell me more about the program.", chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Click(root+` .eb-submit`, chromedp.ByQuery),
		chromedp.WaitVisible(root+` .eb-submit.success`, chromedp.ByQuery),
		chromedp.Text(root+` .eb-submit`, &label, chromedp.ByQuery),
	)
	require.NoError(t, err)

	if !strings.Contains(label, "We will get back to you soon") {
		t.Errorf("submit label = %q, want success message", label)
	}
	docs := sink.Documents("contacts")
	require.Len(t, docs, 1)
	if docs[0]["name"] != "Joanna Doe" {
		t.Errorf("stored name = %v, want %q", docs[0]["name"], "Joanna Doe")
	}
}

func TestE2EOnboardingFirstStep(t *testing.T) {
	ctx, cleanup := setupChrome(t, 60*time.Second)
	defer cleanup()

	url, _ := startSite(t, map[string]string{
		"apply.md": "---\ntitle: Apply\n---\n# Apply\n\n```island onboarding\n```\n",
	})

	const root = `[data-island="onboarding"]`
	var progress, forward string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url+"/apply"),
		chromedp.WaitVisible(root+` .eb-progress`, chromedp.ByQuery),
		chromedp.Text(root+` .eb-progress-label`, &progress, chromedp.ByQuery),
		chromedp.Text(root+` [data-event="next"]`, &forward, chromedp.ByQuery),
	)
	require.NoError(t, err)

	if !strings.Contains(progress, "Step 1 of 7") {
		t.Errorf("progress = %q, want first step", progress)
	}
	if forward != "Lets Get Started" {
		t.Errorf("forward label = %q, want %q", forward, "Lets Get Started")
	}
}
