package procfs

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/osiriscare/vpnsentry/internal/model"
)

// ReadProcesses enumerates numeric subdirectories of /proc. Processes that
// disappear or whose files become unreadable mid-scan are not findings
// (processes come and go); they are simply skipped, with a debug trace.
func ReadProcesses() []model.ProcessInfo {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		log.Printf("[procfs] failed to read /proc: %v", err)
		return nil
	}

	var out []model.ProcessInfo
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		info, ok := readProcess(pid)
		if !ok {
			continue
		}
		out = append(out, info)
	}
	return out
}

func readProcess(pid int) (model.ProcessInfo, bool) {
	statusPath := filepath.Join("/proc", strconv.Itoa(pid), "status")
	data, err := os.ReadFile(statusPath)
	if err != nil {
		log.Printf("[procfs] pid %d: status unreadable: %v", pid, err)
		return model.ProcessInfo{}, false
	}

	var name string
	var uid uint32
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "Name:") {
			name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		} else if strings.HasPrefix(line, "Uid:") {
			fields := strings.Fields(strings.TrimPrefix(line, "Uid:"))
			if len(fields) > 0 {
				if v, err := strconv.ParseUint(fields[0], 10, 32); err == nil {
					uid = uint32(v)
				}
			}
		}
	}

	cmdlinePath := filepath.Join("/proc", strconv.Itoa(pid), "cmdline")
	raw, err := os.ReadFile(cmdlinePath)
	var cmdline string
	if err != nil {
		log.Printf("[procfs] pid %d: cmdline unreadable: %v", pid, err)
	} else {
		parts := strings.Split(strings.TrimRight(string(raw), "\x00"), "\x00")
		cmdline = strings.TrimSpace(strings.Join(parts, " "))
	}

	return model.ProcessInfo{PID: pid, UID: uid, Name: name, Cmdline: cmdline}, true
}
