package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .titlelab/ workspace directory.
// All fields are pre-computed strings: zero-alloc access after construction.
type Paths struct {
	Root   string // .titlelab/
	DB     string // .titlelab/titlelab.db
	Config string // .titlelab/config.yaml

	LogDir    string // .titlelab/log/
	DaemonLog string // .titlelab/log/daemon.log

	RunDir   string // .titlelab/run/
	PIDFile  string // .titlelab/run/daemon.pid
	PortFile string // .titlelab/run/http.port

	Inbox string // .titlelab/inbox/: keyword exports dropped here are imported
}

// NewPaths constructs all resolved paths from a workspace root directory.
func NewPaths(workspaceRoot string) *Paths {
	root := filepath.Join(workspaceRoot, ".titlelab")
	return &Paths{
		Root:   root,
		DB:     filepath.Join(root, "titlelab.db"),
		Config: filepath.Join(root, "config.yaml"),

		LogDir:    filepath.Join(root, "log"),
		DaemonLog: filepath.Join(root, "log", "daemon.log"),

		RunDir:   filepath.Join(root, "run"),
		PIDFile:  filepath.Join(root, "run", "daemon.pid"),
		PortFile: filepath.Join(root, "run", "http.port"),

		Inbox: filepath.Join(root, "inbox"),
	}
}

// EnsureDirs creates all subdirectories under .titlelab/. Idempotent.
func (p *Paths) EnsureDirs() error {
	dirs := []string{
		p.Root,
		p.LogDir,
		p.RunDir,
		p.Inbox,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes ephemeral runtime files (PID file and port file).
// Called on clean daemon shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.PIDFile)
	os.Remove(p.PortFile)
}
