package run

import (
	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/logx"
)

// Open loads the configuration from args, installs the default logger and
// opens a Builder on the OS filesystem.
func Open(args []string) (*Builder, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, err
	}
	logger := logx.Init(cfg.Verbose, "")
	return NewBuilder(cfg, logger)
}
