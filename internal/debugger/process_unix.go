//go:build !windows

package debugger

import "syscall"

func processGroupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func processGroupID(pid int) (int, error) {
	return syscall.Getpgid(pid)
}

func killProcessGroupTerm(pgid int) {
	_ = syscall.Kill(-pgid, syscall.SIGTERM)
}

func killProcessGroupKill(pgid int) {
	_ = syscall.Kill(-pgid, syscall.SIGKILL)
}
