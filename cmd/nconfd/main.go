package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nconfd/nconfd/internal/engine/filestore"
	"github.com/nconfd/nconfd/internal/options"
	"github.com/nconfd/nconfd/internal/shutdown"
	"github.com/nconfd/nconfd/internal/supervisor"
)

// EnvConfig points at an alternate runtime manifest.
const EnvConfig = "NCONFD_CONFIG"

const defaultManifest = "/etc/nconfd/nconfd.toml"

func main() {
	progname := filepath.Base(os.Args[0])

	opts, err := options.Parse(os.Args[1:], os.Getenv)
	if err != nil {
		options.Usage(os.Stdout, progname)
		os.Exit(supervisor.ExitSuccess)
	}

	cfg := supervisor.DefaultConfig()
	cfg.Foreground = opts.Foreground
	cfg.Verbosity = opts.Verbosity

	manifest := os.Getenv(EnvConfig)
	if manifest == "" {
		manifest = defaultManifest
	}
	loaded, err := loadManifest(manifest, cfg)
	switch {
	case err == nil:
		cfg = loaded
	case errors.Is(err, fs.ErrNotExist):
		// No manifest installed: stock layout applies.
	default:
		fmt.Fprintf(os.Stderr, "%s: %v\n", progname, err)
		os.Exit(supervisor.ExitFailure)
	}

	cfg.Callbacks = filestore.NewServerCallbacks("netconf-server")

	ctl := shutdown.New(os.Exit)
	ctl.Install()

	svc := supervisor.New(cfg, filestore.New(), ctl)
	os.Exit(svc.Run())
}
