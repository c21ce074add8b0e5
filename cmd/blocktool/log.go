package main

import (
	"fmt"
	"os"

	"github.com/emberchain/emberd/logger"
)

var log = logger.RegisterSubSystem("BKTL")

func initLog(logFile, errLogFile string) {
	err := logger.InitLog(logFile, errLogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %+v\n", err)
		os.Exit(1)
	}
}
