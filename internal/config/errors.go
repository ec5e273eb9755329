package config

import (
	"errors"
)

var (
	// ErrDBEngineEmpty error if config db.engine is empty.
	ErrDBEngineEmpty = errors.New("toml config db.engine can not be empty")

	// ErrDBNameEmpty error if config db.name is empty for a server engine.
	ErrDBNameEmpty = errors.New("toml config db.name can not be empty")
)
