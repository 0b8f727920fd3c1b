package main

import (
	"context"
	"errors"
	"flag"
	"github.com/buddyfleet/buddyops/cmd/internal/args"
	"github.com/buddyfleet/buddyops/cmd/internal/entry"
	"github.com/buddyfleet/buddyops/cmd/internal/logger"
	"github.com/buddyfleet/buddyops/cmd/internal/output"
	"github.com/buddyfleet/buddyops/cmd/internal/provisioning"
	"go.uber.org/zap"
	"os"
)

var Version = "development"

// spawn [flags] <human> <buddy>
func main() {
	logger.BuildLogger("info")

	parseArgs, argsErrors, err := args.ParseArgs("spawn", os.Args[1:])

	if errors.Is(err, flag.ErrHelp) {
		zap.L().Error(argsErrors)
		os.Exit(2)
	} else if err != nil {
		zap.L().Error("got error: " + err.Error())
		zap.L().Error("argsErrors:\n" + argsErrors)
		os.Exit(1)
	}

	logger.BuildLogger(parseArgs.LogLevel)

	if parseArgs.Version {
		zap.L().Info("Version: " + Version)
		os.Exit(0)
	}

	result, err := entry.Spawn(context.Background(), parseArgs)

	if err != nil {
		var abortError *provisioning.AbortError
		if errors.As(err, &abortError) {
			zap.L().Error("provisioning stopped, resources created so far were left in place",
				zap.String("run", abortError.Context.RunId),
				zap.String("step", abortError.Step),
				zap.String("projectId", abortError.Context.ProjectId),
				zap.String("serviceId", abortError.Context.ServiceId))

			if err := output.WriteJson(abortError.Context); err != nil {
				zap.L().Error(err.Error())
			}
		}

		errorExit(err.Error())
	}

	if err := output.WriteJson(result); err != nil {
		errorExit(err.Error())
	}
}

func errorExit(message string) {
	if len(message) == 0 {
		message = "No error message provided"
	}
	zap.L().Error(message)
	os.Exit(1)
}
