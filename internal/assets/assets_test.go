package assets

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetClientJS(t *testing.T) {
	data, err := GetClientJS()
	if err != nil {
		t.Fatalf("GetClientJS failed: %v", err)
	}
	if !bytes.Contains(data, []byte(`"mount"`)) {
		t.Error("client script does not send mount events")
	}
}

func TestGetClientCSS(t *testing.T) {
	data, err := GetClientCSS()
	if err != nil {
		t.Fatalf("GetClientCSS failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("GetClientCSS returned empty data")
	}
}

func TestClientFS(t *testing.T) {
	fsys := ClientFS()
	for _, name := range []string{ClientJS, ClientCSS} {
		f, err := fsys.Open(name)
		if err != nil {
			t.Fatalf("Failed to open %s from ClientFS: %v", name, err)
		}
		f.Close()
	}
}

func TestLayouts(t *testing.T) {
	tmpl, err := Layouts()
	if err != nil {
		t.Fatalf("Layouts failed: %v", err)
	}

	for _, name := range []string{"default", "bare", "notfound"} {
		if tmpl.Lookup(name) == nil {
			t.Errorf("layout %q not defined", name)
		}
	}

	data := map[string]any{
		"SiteTitle": "Elevate Box",
		"Page":      map[string]any{"Title": "Contact", "Description": ""},
		"Nav":       []map[string]any{{"Path": "/", "Title": "Home", "Active": true}},
		"Content":   "<p>hi</p>",
		"Watch":     true,
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "default", data); err != nil {
		t.Fatalf("execute default: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<title>Contact | Elevate Box</title>", `aria-current="page"`, `data-watch="true"`, "&lt;p&gt;hi&lt;/p&gt;"} {
		if !strings.Contains(out, want) {
			t.Errorf("default layout missing %q", want)
		}
	}
}
