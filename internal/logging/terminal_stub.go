//go:build !linux

package logging

func isTerminal(fd uintptr) bool {
	return false
}
