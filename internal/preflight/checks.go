package preflight

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// minFreeBytes is the smallest amount of free space the work disk may have
// before compression temp files become risky to create.
const minFreeBytes = 256 << 20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBinary verifies that an external command resolves on PATH.
func CheckBinary(name, command string) Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	if _, err := exec.LookPath(command); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", command)}
	}
	return Result{Name: name, Passed: true, Detail: command}
}

// CheckDiskSpace verifies that the filesystem holding path has headroom for
// compression temp files.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%d MiB free, need %d MiB)", path, free>>20, int64(minFreeBytes)>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}

// CheckConnectivity resolves the probe host to decide whether the network is up.
func CheckConnectivity(ctx context.Context, host string) Result {
	const name = "Network"
	host = strings.TrimSpace(host)
	if host == "" {
		return Result{Name: name, Detail: "probe host not configured"}
	}
	if Online(ctx, host) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s resolves", host)}
	}
	return Result{Name: name, Detail: fmt.Sprintf("cannot resolve %s", host)}
}

// Online reports whether the probe host currently resolves. The verification
// stage uses this to defer work instead of failing documents while the
// station is offline.
func Online(ctx context.Context, host string) bool {
	host = strings.TrimSpace(host)
	if host == "" {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var resolver net.Resolver
	addrs, err := resolver.LookupHost(probeCtx, host)
	return err == nil && len(addrs) > 0
}
