package procfs

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/osiriscare/vpnsentry/internal/model"
)

// ReadKernelModules parses /proc/modules; field 1 of each line is the
// module name.
func ReadKernelModules() ([]model.KernelModuleInfo, []model.Finding) {
	f, err := os.Open("/proc/modules")
	if err != nil {
		return nil, []model.Finding{model.NewFinding(model.Warning,
			fmt.Sprintf("failed to open /proc/modules: %v", err))}
	}
	defer f.Close()

	var modules []model.KernelModuleInfo
	var findings []model.Finding

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 1 {
			findings = append(findings, model.NewFinding(model.Warning, "malformed line in /proc/modules"))
			continue
		}
		modules = append(modules, model.KernelModuleInfo{Name: fields[0]})
	}
	return modules, findings
}
