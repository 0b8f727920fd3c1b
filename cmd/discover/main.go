package main

import (
	"context"
	"github.com/buddyfleet/buddyops/cmd/internal/args"
	"github.com/buddyfleet/buddyops/cmd/internal/entry"
	"github.com/buddyfleet/buddyops/cmd/internal/logger"
	"github.com/buddyfleet/buddyops/cmd/internal/output"
	"github.com/buddyfleet/buddyops/cmd/internal/resolver"
	"go.uber.org/zap"
	"os"
)

var Version = "development"

// discover prints the current model tiers as one JSON line. It always exits with 0, a failed
// discovery prints the default models with an error message instead.
func main() {
	logger.BuildLogger("info")

	parseArgs, argsErrors, err := args.ParseArgs("discover", os.Args[1:])

	if err != nil {
		zap.L().Error("got error: " + err.Error())
		zap.L().Error("argsErrors:\n" + argsErrors)
		printResult(resolver.DefaultResult(err))
		return
	}

	logger.BuildLogger(parseArgs.LogLevel)

	if parseArgs.Version {
		zap.L().Info("Version: " + Version)
		return
	}

	printResult(entry.Discover(context.Background(), parseArgs))
}

func printResult(result resolver.Result) {
	if err := output.WriteJson(result); err != nil {
		zap.L().Error(err.Error())
	}
}
