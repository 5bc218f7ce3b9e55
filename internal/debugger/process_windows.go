//go:build windows

package debugger

import (
	"os"
	"syscall"
)

// Windows has no process-group signal model; cdb.exe/windbg are killed
// directly rather than via a process group.
func processGroupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}

func processGroupID(pid int) (int, error) {
	return pid, nil
}

func killProcessGroupTerm(pgid int) {
	killByPID(pgid)
}

func killProcessGroupKill(pgid int) {
	killByPID(pgid)
}

func killByPID(pid int) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	_ = proc.Kill()
}
