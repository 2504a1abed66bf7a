package config

import (
	"net"
	"os"
	"strings"
	"sync"
)

// DockerHostGateway resolves to the container host under Docker Desktop and
// under `--add-host=host.docker.internal:host-gateway`.
const DockerHostGateway = "host.docker.internal"

var inContainer = sync.OnceValue(func() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
})

// IsRunningInDocker reports whether /.dockerenv exists. Checked once per process.
func IsRunningInDocker() bool {
	return inContainer()
}

// ResolveHostForDocker points loopback source hosts at DockerHostGateway when the
// materializer runs in a container, where loopback would be the container itself.
func ResolveHostForDocker(host string) string {
	return rewriteLoopback(host, inContainer())
}

func rewriteLoopback(host string, containerized bool) string {
	if !containerized || !isLoopback(host) {
		return host
	}
	return DockerHostGateway
}

// isLoopback matches "localhost" and any loopback literal (127.0.0.0/8, ::1),
// with or without IPv6 brackets.
func isLoopback(host string) bool {
	h := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(host), "["), "]")
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
