package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateCmd(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantErr  bool
		wantText string
	}{
		{"valid", `{"title": "Hello"}`, false, "1 keys valid"},
		{"required", `{"title": ""}`, true, "title:"},
		{"unknown key", `{"subtitle": "x"}`, true, `Unknown field key "subtitle"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := writeFile(t, "data.json", tt.data)
			out, err := run(t, "validate", "--data", data, "--type", "Block")
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate error = %v, wantErr %v\n%s", err, tt.wantErr, out)
			}
			if tt.wantErr && !errors.Is(err, errFailed) {
				t.Errorf("error = %v, want errFailed", err)
			}
			if !strings.Contains(out, tt.wantText) {
				t.Errorf("output = %q, want it to contain %q", out, tt.wantText)
			}
		})
	}
}

func TestValidateCmd_UnknownType(t *testing.T) {
	data := writeFile(t, "data.json", `{}`)
	if _, err := run(t, "validate", "--data", data, "--type", "Nope"); err == nil {
		t.Error("validate --type Nope should fail")
	}
}

func TestValidateCmd_CustomCatalog(t *testing.T) {
	catalog := writeFile(t, "catalog.yaml", `fields:
  - id: 5b0c6d1e-58b4-4a0e-9d77-3c1c9c2cf001
    key: rating
    label: Rating
    fieldType: number
    validation:
      between: { min: 1, max: 5 }
`)

	data := writeFile(t, "ok.json", `{"rating": 4}`)
	if out, err := run(t, "validate", "--catalog", catalog, "--data", data); err != nil {
		t.Errorf("validate error = %v\n%s", err, out)
	}

	data = writeFile(t, "bad.json", `{"rating": 9}`)
	if _, err := run(t, "validate", "--catalog", catalog, "--data", data); !errors.Is(err, errFailed) {
		t.Errorf("validate error = %v, want errFailed", err)
	}
}

func TestFilterCmd(t *testing.T) {
	filters := writeFile(t, "filters.json", `[
  {"group": "or", "children": [
    {"key": "status", "operator": "==", "value": "published"},
    {"key": "views", "operator": ">", "value": 100}
  ]}
]`)
	records := writeFile(t, "records.json", `[
  {"id": "a", "status": "published", "views": 1},
  {"id": "b", "status": "draft", "views": 500},
  {"id": "c", "status": "draft", "views": 2}
]`)

	out, err := run(t, "filter", "--filters", filters, "--records", records)
	if err != nil {
		t.Fatalf("filter error = %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(got) != 2 || got[0]["id"] != "a" || got[1]["id"] != "b" {
		t.Errorf("filter output = %v, want a and b", got)
	}
}

func TestFilterCmd_NoMatches(t *testing.T) {
	filters := writeFile(t, "filters.json", `[{"key": "status", "operator": "==", "value": "archived"}]`)
	records := writeFile(t, "records.json", `[{"id": "a", "status": "draft"}]`)

	out, err := run(t, "filter", "--filters", filters, "--records", records)
	if err != nil {
		t.Fatalf("filter error = %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("output = %q, want []", out)
	}
}

func TestFilterCmd_UnknownOperator(t *testing.T) {
	filters := writeFile(t, "filters.json", `[{"key": "a", "operator": "like", "value": 1}]`)
	records := writeFile(t, "records.json", `[]`)

	if _, err := run(t, "filter", "--filters", filters, "--records", records); err == nil {
		t.Error("filter with unknown operator should fail")
	}
}

func TestCatalogCheckCmd(t *testing.T) {
	out, err := run(t, "catalog", "check")
	if err != nil {
		t.Fatalf("catalog check error = %v", err)
	}
	if !strings.Contains(out, "Block:") {
		t.Errorf("output = %q, want the Block set listed", out)
	}

	dup := writeFile(t, "dup.yaml", `fields:
  - id: 5b0c6d1e-58b4-4a0e-9d77-3c1c9c2cf001
    key: a
    label: A
    fieldType: text
  - id: 5b0c6d1e-58b4-4a0e-9d77-3c1c9c2cf001
    key: b
    label: B
    fieldType: text
`)
	if out, err := run(t, "catalog", "check", dup); err == nil || !strings.Contains(out, crossMark) {
		t.Errorf("catalog check dup = %v %q, want failure", err, out)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "contentcore dev") {
		t.Errorf("output = %q", out)
	}
}
