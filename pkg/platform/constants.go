// Package platform provides per operating system file-system limits used when
// materialising beatmaps on disk.
package platform

const (
	// OSWindows represents the Windows operating system.
	OSWindows = "windows"
	// OSLinux represents the Linux operating system.
	OSLinux = "linux"
	// OSDarwin represents the macOS operating system.
	OSDarwin = "darwin"
	// OSFreeBSD represents the FreeBSD operating system.
	OSFreeBSD = "freebsd"
	// OSOpenBSD represents the OpenBSD operating system.
	OSOpenBSD = "openbsd"
	// OSNetBSD represents the NetBSD operating system.
	OSNetBSD = "netbsd"

	// WindowsMaxPath is MAX_PATH minus the terminating NUL.
	WindowsMaxPath = 259
	// DarwinMaxPath is PATH_MAX on macOS.
	DarwinMaxPath = 1024
	// UnixMaxPath is PATH_MAX on Linux and the BSDs.
	UnixMaxPath = 4096
	// MaxNameLength is the longest single path component most file systems accept.
	MaxNameLength = 255
)

// ValidOS returns a list of known OS values.
func ValidOS() []string {
	return []string{
		OSWindows,
		OSLinux,
		OSDarwin,
		OSFreeBSD,
		OSOpenBSD,
		OSNetBSD,
	}
}
