package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigRoot_UsesXDGConfigHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	got, err := ConfigRoot()
	if err != nil {
		t.Fatalf("ConfigRoot() error = %v", err)
	}

	want := filepath.Join(tmp, "qsn")
	if got != want {
		t.Fatalf("ConfigRoot() = %q, want %q", got, want)
	}
}

func TestCacheRoot_UsesXDGCacheHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tmp)

	got, err := CacheRoot()
	if err != nil {
		t.Fatalf("CacheRoot() error = %v", err)
	}

	want := filepath.Join(tmp, "qsn")
	if got != want {
		t.Fatalf("CacheRoot() = %q, want %q", got, want)
	}
}

func TestStateRoot_UsesXDGStateHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmp)

	got, err := StateRoot()
	if err != nil {
		t.Fatalf("StateRoot() error = %v", err)
	}

	want := filepath.Join(tmp, "qsn")
	if got != want {
		t.Fatalf("StateRoot() = %q, want %q", got, want)
	}
}

func TestStateRoot_FallsBackToLocalState(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("cannot determine home dir: %v", err)
	}

	got, err := StateRoot()
	if err != nil {
		t.Fatalf("StateRoot() error = %v", err)
	}

	want := filepath.Join(home, ".local", "state", "qsn")
	if got != want {
		t.Fatalf("StateRoot() = %q, want %q", got, want)
	}
}

func TestDerivedPaths(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	logFile, err := DefaultLogFile()
	if err != nil {
		t.Fatalf("DefaultLogFile() error = %v", err)
	}

	wantLog := filepath.Join(state, "qsn", "logs", "qsn.log")
	if logFile != wantLog {
		t.Fatalf("DefaultLogFile() = %q, want %q", logFile, wantLog)
	}

	stateFile, err := UpdateStateFile()
	if err != nil {
		t.Fatalf("UpdateStateFile() error = %v", err)
	}

	wantState := filepath.Join(state, "qsn", "update-check.json")
	if stateFile != wantState {
		t.Fatalf("UpdateStateFile() = %q, want %q", stateFile, wantState)
	}

	transcriptDir, err := TranscriptDir()
	if err != nil {
		t.Fatalf("TranscriptDir() error = %v", err)
	}

	wantTranscript := filepath.Join(state, "qsn", "transcripts")
	if transcriptDir != wantTranscript {
		t.Fatalf("TranscriptDir() = %q, want %q", transcriptDir, wantTranscript)
	}
}

func TestXDGRelativePathIgnored(t *testing.T) {
	relPath := filepath.Join("relative", "path")

	t.Setenv("XDG_CONFIG_HOME", relPath)

	got, err := ConfigRoot()
	if err != nil {
		t.Fatalf("ConfigRoot() error = %v", err)
	}

	if got == filepath.Join(relPath, "qsn") {
		t.Fatal("ConfigRoot() should ignore relative XDG_CONFIG_HOME, but used it")
	}

	t.Setenv("XDG_STATE_HOME", relPath)

	got, err = StateRoot()
	if err != nil {
		t.Fatalf("StateRoot() error = %v", err)
	}

	if got == filepath.Join(relPath, "qsn") {
		t.Fatal("StateRoot() should ignore relative XDG_STATE_HOME, but used it")
	}
}

func TestXDGOverridesOSDefault(t *testing.T) {
	xdgConfig := t.TempDir()
	xdgCache := t.TempDir()
	xdgState := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	t.Setenv("XDG_CACHE_HOME", xdgCache)
	t.Setenv("XDG_STATE_HOME", xdgState)

	configRoot, err := ConfigRoot()
	if err != nil {
		t.Fatalf("ConfigRoot() error = %v", err)
	}

	if configRoot != filepath.Join(xdgConfig, "qsn") {
		t.Fatalf("ConfigRoot() = %q, want XDG override %q", configRoot, filepath.Join(xdgConfig, "qsn"))
	}

	cacheRoot, err := CacheRoot()
	if err != nil {
		t.Fatalf("CacheRoot() error = %v", err)
	}

	if cacheRoot != filepath.Join(xdgCache, "qsn") {
		t.Fatalf("CacheRoot() = %q, want XDG override %q", cacheRoot, filepath.Join(xdgCache, "qsn"))
	}

	stateRoot, err := StateRoot()
	if err != nil {
		t.Fatalf("StateRoot() error = %v", err)
	}

	if stateRoot != filepath.Join(xdgState, "qsn") {
		t.Fatalf("StateRoot() = %q, want XDG override %q", stateRoot, filepath.Join(xdgState, "qsn"))
	}
}
