package database

import (
	"github.com/emberchain/emberd/logger"
)

var log = logger.RegisterSubSystem("BSDB")
