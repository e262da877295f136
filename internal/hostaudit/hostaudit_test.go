package hostaudit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/osiriscare/vpnsentry/internal/config"
)

func touchWithAge(t *testing.T, age time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watched")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckFiles_ExactlyAtThresholdIsNotFlagged(t *testing.T) {
	path := touchWithAge(t, 3600*time.Second)
	cfg := config.Configuration{WatchedFilesForModification: []string{path}, RecentModThresholdSecs: 3600}

	result := checkFiles(cfg)
	if len(result.Findings) != 0 {
		t.Errorf("file exactly at the 3600s threshold should not be flagged, got %v", result.Findings)
	}
}

func TestCheckFiles_OneSecondUnderThresholdIsFlagged(t *testing.T) {
	path := touchWithAge(t, 3599*time.Second)
	cfg := config.Configuration{WatchedFilesForModification: []string{path}, RecentModThresholdSecs: 3600}

	result := checkFiles(cfg)
	if len(result.Findings) != 1 {
		t.Errorf("file at 3599s should be flagged as recently modified, got %v", result.Findings)
	}
}

func TestCheckFiles_MissingFileIsFlagged(t *testing.T) {
	cfg := config.Configuration{
		WatchedFilesForModification: []string{filepath.Join(t.TempDir(), "does-not-exist")},
		RecentModThresholdSecs:      3600,
	}
	result := checkFiles(cfg)
	if len(result.Findings) != 1 {
		t.Errorf("expected one finding for a missing watched file, got %v", result.Findings)
	}
}

func TestCheckModules_StrictModeWithoutRequiredListAborts(t *testing.T) {
	cfg := config.Configuration{EnforceRequiredModulesOnly: true}
	result := checkModules(cfg)
	if !result.Aborted {
		t.Error("expected module check to abort when strict mode has no required list")
	}
	if len(result.Findings) != 1 || result.Findings[0].Text == "" {
		t.Errorf("expected exactly one configuration finding, got %v", result.Findings)
	}
}

func TestCheckPorts_LoopbackSocketsNeverUnexpected(t *testing.T) {
	// checkPorts reads the live /proc/net tables; this only asserts the
	// allow-set wiring compiles and loopback filtering runs without panic
	// on whatever sockets the test host happens to have open.
	cfg := config.DefaultConfig()
	result := checkPorts(cfg)
	for _, s := range result.UnexpectedSockets {
		if s.LocalIP.IsLoopback() {
			t.Errorf("loopback socket reported as unexpected: %+v", s)
		}
	}
}
