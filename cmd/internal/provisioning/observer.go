package provisioning

import (
	"go.uber.org/zap"
)

// LoggingObserver narrates a run through the global zap logger.
type LoggingObserver struct{}

func (l LoggingObserver) StepStarted(step Step, state Context) {
	zap.L().Info("starting step "+step.Name, zap.String("run", state.RunId))
}

func (l LoggingObserver) StepSucceeded(step Step, state Context) {
	fields := []zap.Field{zap.String("run", state.RunId)}

	switch step.Name {
	case StepCreateProject:
		fields = append(fields, zap.String("projectId", state.ProjectId), zap.String("projectName", state.ProjectName))
	case StepSelectEnvironment:
		fields = append(fields, zap.String("environmentId", state.EnvironmentId), zap.String("environment", state.EnvironmentName))
	case StepCreateService:
		fields = append(fields, zap.String("serviceId", state.ServiceId))
	case StepCreateVolume:
		fields = append(fields, zap.String("volumeId", state.VolumeId))
	case StepSetVariables:
		fields = append(fields, zap.String("variablesHash", state.VariablesHash))
	case StepCreateDomain:
		fields = append(fields, zap.String("domain", state.Domain))
	}

	zap.L().Info("completed step "+step.Name, fields...)
}

func (l LoggingObserver) StepFailed(step Step, state Context, err error) {
	if step.Advisory {
		zap.L().Warn("step "+step.Name+" failed, continuing", zap.String("run", state.RunId), zap.Error(err))
		return
	}

	zap.L().Error("step "+step.Name+" failed", zap.String("run", state.RunId), zap.Error(err))
}
