package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved file system locations the application uses
type Paths struct {
	ExecutableDir string
	WorkingDir    string
	DataFile      string
	LogsDir       string
}

// GetPaths resolves the configured data file and log location.
// A relative data file is looked up in the working directory first and then
// next to the executable; when neither exists the working-directory path is
// kept so the loader reports it.
func GetPaths(cfg *Config) (*Paths, error) {
	exeDir, err := executableDir()
	if err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %v", err)
	}

	return &Paths{
		ExecutableDir: exeDir,
		WorkingDir:    wd,
		DataFile:      resolveFile(cfg.Data.File, wd, exeDir),
		LogsDir:       filepath.Dir(resolveFile(cfg.Logging.FilePath, wd, exeDir)),
	}, nil
}

// executableDir returns the directory containing the running binary
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return filepath.Dir(exe), nil
}

func resolveFile(path, wd, exeDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	candidates := []string{filepath.Join(wd, path), filepath.Join(exeDir, path)}
	for _, candidate := range candidates {
		if FileExists(candidate) {
			return candidate
		}
	}
	return candidates[0]
}

// FileExists checks if a regular file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Info("Path resolution",
		slog.String("executable_dir", p.ExecutableDir),
		slog.String("working_dir", p.WorkingDir),
		slog.String("data_file", p.DataFile),
		slog.Bool("data_file_exists", FileExists(p.DataFile)),
		slog.String("logs_dir", p.LogsDir))
}
