package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kbprep/internal/pipeline"
	"kbprep/internal/preprocess"
)

func TestRun_SingleFileToFile(t *testing.T) {
	tmp := t.TempDir()
	inPath := filepath.Join(tmp, "guide.md")
	outPath := filepath.Join(tmp, "out.txt")
	if err := os.WriteFile(inPath, []byte("# Guide\nalpha\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cli := cliOptions{In: inPath, Out: outPath}
	if err := run(context.Background(), cli); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "{ data-path = \"Guide\" }\n# Guide\nalpha\n"
	if string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRun_SingleFileToDirectory(t *testing.T) {
	tmp := t.TempDir()
	inPath := filepath.Join(tmp, "guide.md")
	outDir := filepath.Join(tmp, "out")
	if err := os.WriteFile(inPath, []byte("# Guide\nalpha\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cli := cliOptions{In: inPath, Out: outDir}
	if err := run(context.Background(), cli); err != nil {
		t.Fatalf("run: %v", err)
	}

	// The output filename is derived from the input name
	if _, err := os.Stat(filepath.Join(outDir, "guide.txt")); err != nil {
		t.Errorf("expected guide.txt in output directory: %v", err)
	}
}

func TestRun_Annotate(t *testing.T) {
	tmp := t.TempDir()
	inPath := filepath.Join(tmp, "guide.md")
	outPath := filepath.Join(tmp, "annotated.md")
	if err := os.WriteFile(inPath, []byte("# Guide\n## Install\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cli := cliOptions{In: inPath, Out: outPath, Annotate: true}
	if err := run(context.Background(), cli); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "# Guide {data-path=\"Guide\"}\n## Install {data-path=\"Guide > Install\"}\n"
	if string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRun_DirectoryMode(t *testing.T) {
	tmp := t.TempDir()
	inDir := filepath.Join(tmp, "docs")
	outDir := filepath.Join(tmp, "out")
	if err := os.MkdirAll(inDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(inDir, "a.md"), []byte("# A\nalpha\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(inDir, "b.md"), []byte("# B\nbeta\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cli := cliOptions{In: inDir, Out: outDir, Workers: 2}
	if err := run(context.Background(), cli); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, name := range []string{"a.txt", "b.txt"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s in output directory: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, pipeline.ManifestName)); err != nil {
		t.Errorf("expected manifest in output directory: %v", err)
	}
}

func TestRunDirectory_RequiresDirectoryOut(t *testing.T) {
	tmp := t.TempDir()

	cli := cliOptions{In: tmp, Out: ""}
	err := run(context.Background(), cli)
	if err == nil {
		t.Fatal("expected error for directory input without -out")
	}
	if !strings.Contains(err.Error(), "directory") {
		t.Errorf("error = %v, want mention of directory -out", err)
	}
}

func TestRunDirectory_RejectsAnnotate(t *testing.T) {
	tmp := t.TempDir()

	cli := cliOptions{In: tmp, Out: filepath.Join(tmp, "out"), Annotate: true}
	err := run(context.Background(), cli)
	if err == nil {
		t.Fatal("expected error for -annotate with directory input")
	}
}

func TestRun_MissingInput(t *testing.T) {
	cli := cliOptions{In: filepath.Join(t.TempDir(), "missing.md")}
	if err := run(context.Background(), cli); err == nil {
		t.Fatal("expected error for missing input file")
	}
}

func TestRun_SeedTitles(t *testing.T) {
	tmp := t.TempDir()
	inPath := filepath.Join(tmp, "user guide.md")
	outPath := filepath.Join(tmp, "out.txt")
	if err := os.WriteFile(inPath, []byte("plain body\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cli := cliOptions{In: inPath, Out: outPath, SeedTitles: true}
	if err := run(context.Background(), cli); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "{ data-path = \"User Guide\" }\nplain body\n"
	if string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRun_ValidationError(t *testing.T) {
	tmp := t.TempDir()
	inPath := filepath.Join(tmp, "guide.md")
	if err := os.WriteFile(inPath, []byte("# Guide\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cli := cliOptions{
		In:         inPath,
		Preprocess: preprocess.Options{SplitMaxLevel: 7},
	}
	err := run(context.Background(), cli)
	if err == nil {
		t.Fatal("expected validation error for split level 7")
	}
	if !strings.Contains(err.Error(), "split_max_level") {
		t.Errorf("error = %v, want mention of split_max_level", err)
	}
}
