package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// DefaultDirPermissions is used for download and lock directories
const DefaultDirPermissions = 0o755

// XDGDownloadEnv overrides the Downloads directory on Linux desktops
const XDGDownloadEnv = "XDG_DOWNLOAD_DIR"

// Errors returned by OpenDirectory
var (
	ErrEmptyPath       = errors.New("directory path is empty")
	ErrNoFileManager   = errors.New("no suitable file manager found")
	ErrUnsupportedHost = errors.New("unsupported operating system")
)

// linuxFileManagers are tried in order when xdg-open fails
var linuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}

// OpenDirectory shows a directory in the system file manager. A file path
// opens its parent directory.
func OpenDirectory(dirPath string) error {
	if dirPath == "" {
		return ErrEmptyPath
	}
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("directory does not exist: %w", err)
	}
	if !info.IsDir() {
		absPath = filepath.Dir(absPath)
	}

	name, args, err := revealCommand(runtime.GOOS, absPath)
	if err != nil {
		return err
	}
	if err := exec.Command(name, args...).Run(); err == nil || runtime.GOOS != "linux" {
		return err
	}
	for _, fm := range linuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			return exec.Command(fm, absPath).Run()
		}
	}
	return ErrNoFileManager
}

// revealCommand returns the command that opens dir on goos
func revealCommand(goos, dir string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{dir}, nil
	case "windows":
		return "explorer", []string{dir}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{dir}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedHost, goos)
	}
}

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if dirPath == "" {
		return ErrEmptyPath
	}
	if err := os.MkdirAll(dirPath, DefaultDirPermissions); err != nil {
		return fmt.Errorf("create directory %s: %w", dirPath, err)
	}
	return nil
}

// GetHomeDownloadsDir returns the user's Downloads directory, honouring
// XDG_DOWNLOAD_DIR when set.
func GetHomeDownloadsDir() (string, error) {
	if dir := os.Getenv(XDGDownloadEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}
