// Package autoload initializes the global logger from the environment as a
// side effect of being imported.
package autoload

import (
	configx "github.com/studypilot/studypilot/pkg/config"
	logx "github.com/studypilot/studypilot/pkg/logger"
)

func init() {
	cfg, err := configx.New[logx.Config]("LOGGER")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*cfg)
}
