package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildSaveLoad(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"flight.BIN":   "\xa3\x95\x80",
		"XKF1.csv":     "PE,PN\n1,2\n",
		"summary.json": "{}",
		"notes.txt":    "x",
	}
	var paths []string
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		paths = append(paths, p)
	}
	paths = append(paths, paths[0])

	m, err := Build(paths)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Items) != len(files) {
		t.Fatalf("items = %d, want %d (duplicates dropped)", len(m.Items), len(files))
	}
	kinds := map[string]string{}
	for _, it := range m.Items {
		kinds[filepath.Base(it.Path)] = it.Type
		if len(it.Sha256) != 64 || it.Size == 0 {
			t.Fatalf("bad item %+v", it)
		}
	}
	want := map[string]string{"flight.BIN": "dataflash", "XKF1.csv": "csv", "summary.json": "json", "notes.txt": "other"}
	for name, kind := range want {
		if kinds[name] != kind {
			t.Errorf("%s kind = %q, want %q", name, kinds[name], kind)
		}
	}

	m.RunID = "run-1"
	out := filepath.Join(dir, "manifest.json")
	if err := Save(m, out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d1, err := Digest(m)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	d2, err := Digest(loaded)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if d1 != d2 || loaded.RunID != "run-1" {
		t.Fatalf("manifest changed across save/load: %s != %s", d1, d2)
	}
}

func TestBuildMissingFile(t *testing.T) {
	if _, err := Build([]string{filepath.Join(t.TempDir(), "gone.csv")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
