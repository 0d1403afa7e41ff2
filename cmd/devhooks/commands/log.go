package commands

import (
	"github.com/btcsuite/btclog/v2"
	"github.com/roasbeef/devhooks/internal/advisor"
	"github.com/roasbeef/devhooks/internal/build"
	"github.com/roasbeef/devhooks/internal/config"
	"github.com/roasbeef/devhooks/internal/db"
	"github.com/roasbeef/devhooks/internal/diag"
	"github.com/roasbeef/devhooks/internal/github"
	"github.com/roasbeef/devhooks/internal/hookio"
	"github.com/roasbeef/devhooks/internal/hooks"
	"github.com/roasbeef/devhooks/internal/intent"
	"github.com/roasbeef/devhooks/internal/lint"
	"github.com/roasbeef/devhooks/internal/mcp"
)

// Subsystem defines the logging code for the CLI.
const Subsystem = "CMDS"

// log is a logger that is initialized with no output filters. This means
// the package will not perform any logging by default until the caller
// requests it.
var log = btclog.Disabled

// addSubLogger hands useLogger the manager's logger for subsystem.
func addSubLogger(mgr *build.LogManager, subsystem string,
	useLogger func(btclog.Logger)) {

	useLogger(mgr.SubLogger(subsystem))
}

// setupLoggers wires every package logger to mgr.
func setupLoggers(mgr *build.LogManager) {
	log = mgr.SubLogger(Subsystem)

	addSubLogger(mgr, advisor.Subsystem, advisor.UseLogger)
	addSubLogger(mgr, intent.Subsystem, intent.UseLogger)
	addSubLogger(mgr, lint.Subsystem, lint.UseLogger)
	addSubLogger(mgr, diag.Subsystem, diag.UseLogger)
	addSubLogger(mgr, db.Subsystem, db.UseLogger)
	addSubLogger(mgr, hookio.Subsystem, hookio.UseLogger)
	addSubLogger(mgr, config.Subsystem, config.UseLogger)
	addSubLogger(mgr, hooks.Subsystem, hooks.UseLogger)
	addSubLogger(mgr, github.Subsystem, github.UseLogger)
	addSubLogger(mgr, mcp.Subsystem, mcp.UseLogger)
}
