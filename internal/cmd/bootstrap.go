package cmd

import (
	"milk2meat/internal/config"
	"milk2meat/internal/database"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
)

// bootstrap loads the configuration, starts logging and connects the database.
func bootstrap() (*config.Configuration, *logging.DefaultLogger, *environment.Env, error) {
	c := config.InitConfig(configFile)

	logger := logging.InitLogging(c)

	db, err := database.InitDatabase(c, logger)
	if err != nil {
		logger.LogErrorf(logging.GetLogTypeInitialization(), "error initializing database: %v", err)
		return nil, nil, nil, err
	}

	env := environment.Environment(
		&database.GormRepository{DB: db},
		logger,
	)

	return c, logger, env, nil
}
