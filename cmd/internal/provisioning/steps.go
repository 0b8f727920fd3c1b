package provisioning

import (
	"context"
	"errors"
	"github.com/buddyfleet/buddyops/cmd/internal/client"
	"github.com/buddyfleet/buddyops/cmd/internal/hash"
	"github.com/buddyfleet/buddyops/cmd/internal/model/railway"
	"github.com/samber/lo"
)

const (
	StepCreateProject     = "create project"
	StepSelectEnvironment = "select environment"
	StepCreateService     = "create service"
	StepCreateVolume      = "create volume"
	StepSetVariables      = "set variables"
	StepCreateDomain      = "create domain"
	StepDeploy            = "deploy"
)

// Steps returns the provisioning workflow in execution order.
func Steps() []Step {
	return []Step{
		{
			Name: StepCreateProject,
			Run:  createProject,
		},
		{
			Name:     StepSelectEnvironment,
			Requires: []Field{ProjectId},
			Run:      selectEnvironment,
		},
		{
			Name:     StepCreateService,
			Requires: []Field{ProjectId},
			Run:      createService,
		},
		{
			Name:     StepCreateVolume,
			Requires: []Field{ProjectId, EnvironmentId},
			Advisory: true,
			Run:      createVolume,
		},
		{
			Name:     StepSetVariables,
			Requires: []Field{ProjectId, EnvironmentId, ServiceId},
			Run:      setVariables,
		},
		{
			Name:     StepCreateDomain,
			Requires: []Field{EnvironmentId, ServiceId},
			Advisory: true,
			Run:      createDomain,
			Fallback: pendingDomain,
		},
		{
			Name:     StepDeploy,
			Requires: []Field{ServiceId, EnvironmentId},
			Run:      deploy,
		},
	}
}

func createProject(ctx context.Context, env Env, state Context) (Context, error) {
	response, err := env.Client.Execute(ctx, projectCreateMutation, map[string]any{
		"input": map[string]any{
			"name": env.Request.ProjectName(),
		},
	})

	if err != nil {
		return state, err
	}

	project, err := decodeRequired(response, "projectCreate", "project id", func(project railway.NameId) string {
		return project.Id
	})

	if err != nil {
		return state, err
	}

	state.ProjectId = project.Id
	state.ProjectName = lo.Ternary(project.Name != "", project.Name, env.Request.ProjectName())

	return state, nil
}

// selectEnvironment prefers the configured environment name and otherwise takes the first one
// listed.
func selectEnvironment(ctx context.Context, env Env, state Context) (Context, error) {
	response, err := env.Client.Execute(ctx, projectEnvironmentsQuery, map[string]any{
		"id": state.ProjectId,
	})

	if err != nil {
		return state, err
	}

	project, _, err := client.DecodeField[railway.Project](response, "project")

	if err != nil {
		return state, err
	}

	environments := lo.Filter(project.Environments.Nodes(), func(environment railway.Environment, index int) bool {
		return environment.Id != ""
	})

	if len(environments) == 0 {
		return state, &EmptyResultError{Field: "environment", Cause: client.JoinApiErrors(response.Errors)}
	}

	environment, found := lo.Find(environments, func(environment railway.Environment) bool {
		return environment.Name == env.Config.EnvironmentName
	})

	if !found {
		environment = environments[0]
	}

	state.EnvironmentId = environment.Id
	state.EnvironmentName = environment.Name

	return state, nil
}

func createService(ctx context.Context, env Env, state Context) (Context, error) {
	response, err := env.Client.Execute(ctx, serviceCreateMutation, map[string]any{
		"input": map[string]any{
			"projectId": state.ProjectId,
			"name":      env.Config.ServiceName,
			"source": map[string]any{
				"repo": env.Config.TemplateRepo,
			},
		},
	})

	if err != nil {
		return state, err
	}

	service, err := decodeRequired(response, "serviceCreate", "service id", func(service railway.NameId) string {
		return service.Id
	})

	if err != nil {
		return state, err
	}

	state.ServiceId = service.Id

	return state, nil
}

// createVolume succeeds without a volume id when the platform accepted the mutation but did not
// report one.
func createVolume(ctx context.Context, env Env, state Context) (Context, error) {
	response, err := env.Client.Execute(ctx, volumeCreateMutation, map[string]any{
		"input": map[string]any{
			"projectId":     state.ProjectId,
			"environmentId": state.EnvironmentId,
			"mountPath":     env.Config.MountPath,
		},
	})

	if err != nil {
		return state, err
	}

	if response.HasErrors() {
		return state, &EmptyResultError{Field: "volume", Cause: client.JoinApiErrors(response.Errors)}
	}

	volume, _, err := client.DecodeField[railway.NameId](response, "volumeCreate")

	if err != nil {
		return state, err
	}

	state.VolumeId = volume.Id

	return state, nil
}

func setVariables(ctx context.Context, env Env, state Context) (Context, error) {
	variables := BuildVariables(env.Config, env.Request)

	response, err := env.Client.Execute(ctx, variableCollectionUpsertMutation, map[string]any{
		"input": map[string]any{
			"projectId":     state.ProjectId,
			"environmentId": state.EnvironmentId,
			"serviceId":     state.ServiceId,
			"variables":     variables,
		},
	})

	if err != nil {
		return state, err
	}

	if err := acknowledged(response, "variableCollectionUpsert", "variable upsert acknowledgement"); err != nil {
		return state, err
	}

	state.VariablesHash = hash.Fingerprint(variables)

	return state, nil
}

func createDomain(ctx context.Context, env Env, state Context) (Context, error) {
	response, err := env.Client.Execute(ctx, serviceDomainCreateMutation, map[string]any{
		"input": map[string]any{
			"environmentId": state.EnvironmentId,
			"serviceId":     state.ServiceId,
		},
	})

	if err != nil {
		return state, err
	}

	if response.HasErrors() {
		return state, &EmptyResultError{Field: "domain", Cause: client.JoinApiErrors(response.Errors)}
	}

	domain, _, err := client.DecodeField[railway.ServiceDomain](response, "serviceDomainCreate")

	if err != nil {
		return state, err
	}

	state.Domain = lo.Ternary(domain.Domain != "", domain.Domain, env.Config.PendingDomain)

	return state, nil
}

func pendingDomain(env Env, state Context) Context {
	state.Domain = env.Config.PendingDomain
	return state
}

func deploy(ctx context.Context, env Env, state Context) (Context, error) {
	response, err := env.Client.Execute(ctx, serviceInstanceDeployMutation, map[string]any{
		"serviceId":     state.ServiceId,
		"environmentId": state.EnvironmentId,
	})

	if err != nil {
		return state, err
	}

	if err := acknowledged(response, "serviceInstanceDeploy", "deployment acknowledgement"); err != nil {
		return state, err
	}

	state.Deployed = true

	return state, nil
}

func decodeRequired[T any](response client.Response, field string, description string, id func(T) string) (T, error) {
	value, ok, err := client.DecodeField[T](response, field)

	if err != nil {
		return value, err
	}

	if !ok || id(value) == "" {
		return value, &EmptyResultError{Field: description, Cause: client.JoinApiErrors(response.Errors)}
	}

	return value, nil
}

// acknowledged fails when the endpoint reported errors or explicitly answered false. Mutations
// returning a bare boolean may omit it, which counts as acknowledged.
func acknowledged(response client.Response, field string, description string) error {
	if response.HasErrors() {
		return &EmptyResultError{Field: description, Cause: client.JoinApiErrors(response.Errors)}
	}

	value, ok, err := client.DecodeField[bool](response, field)

	if err != nil {
		return err
	}

	if ok && !value {
		return &EmptyResultError{Field: description, Cause: errors.New(field + " returned false")}
	}

	return nil
}
