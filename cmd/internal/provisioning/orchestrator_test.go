package provisioning

import (
	"context"
	"errors"
	"github.com/buddyfleet/buddyops/cmd/internal/client"
	"strings"
	"testing"
)

type call struct {
	operation string
	variables map[string]any
}

type handler func(variables map[string]any) (client.Response, error)

// fakeGraph answers each operation with a canned handler and records every call.
type fakeGraph struct {
	handlers map[string]handler
	calls    []call
}

var operations = []string{
	"projectCreate",
	"project",
	"serviceCreate",
	"volumeCreate",
	"variableCollectionUpsert",
	"serviceDomainCreate",
	"serviceInstanceDeploy",
}

func (f *fakeGraph) Execute(ctx context.Context, query string, variables map[string]any) (client.Response, error) {
	for _, operation := range operations {
		if strings.Contains(query, "\t"+operation+"(") {
			f.calls = append(f.calls, call{operation: operation, variables: variables})
			if handler, ok := f.handlers[operation]; ok {
				return handler(variables)
			}
			return client.Response{}, errors.New("no handler for " + operation)
		}
	}
	return client.Response{}, errors.New("unknown operation")
}

func (f *fakeGraph) operations() []string {
	names := []string{}
	for _, call := range f.calls {
		names = append(names, call.operation)
	}
	return names
}

func data(values map[string]any) handler {
	return func(variables map[string]any) (client.Response, error) {
		return client.Response{Data: values}, nil
	}
}

func apiErrors(message string) handler {
	return func(variables map[string]any) (client.Response, error) {
		return client.Response{Data: map[string]any{}, Errors: []client.ApiError{{Message: message}}}, nil
	}
}

func transportError(status int) handler {
	return func(variables map[string]any) (client.Response, error) {
		return client.Response{}, &client.TransportError{StatusCode: status, Body: "failed"}
	}
}

func environments(names ...string) handler {
	edges := []any{}
	for i, name := range names {
		edges = append(edges, map[string]any{"node": map[string]any{"id": "env-" + string(rune('a'+i)), "name": name}})
	}
	return data(map[string]any{"project": map[string]any{"environments": map[string]any{"edges": edges}}})
}

func happyGraph() *fakeGraph {
	return &fakeGraph{handlers: map[string]handler{
		"projectCreate":            data(map[string]any{"projectCreate": map[string]any{"id": "proj-1", "name": "roel-emrys"}}),
		"project":                  environments("production"),
		"serviceCreate":            data(map[string]any{"serviceCreate": map[string]any{"id": "svc-1", "name": "OpenClaw"}}),
		"volumeCreate":             data(map[string]any{"volumeCreate": map[string]any{"id": "vol-1", "name": "data"}}),
		"variableCollectionUpsert": data(map[string]any{"variableCollectionUpsert": true}),
		"serviceDomainCreate":      data(map[string]any{"serviceDomainCreate": map[string]any{"id": "dom-1", "domain": "roel-emrys.up.railway.app"}}),
		"serviceInstanceDeploy":    data(map[string]any{"serviceInstanceDeploy": true}),
	}}
}

type recordingObserver struct {
	events []string
}

func (r *recordingObserver) StepStarted(step Step, state Context) {
	r.events = append(r.events, "start "+step.Name)
}

func (r *recordingObserver) StepSucceeded(step Step, state Context) {
	r.events = append(r.events, "ok "+step.Name)
}

func (r *recordingObserver) StepFailed(step Step, state Context, err error) {
	r.events = append(r.events, "fail "+step.Name)
}

func request() Request {
	return Request{HumanName: "roel", BuddyName: "emrys", ModelId: "google/gemini-3-pro-preview"}
}

func TestProvisionSuccess(t *testing.T) {
	graph := happyGraph()
	observer := &recordingObserver{}

	result, err := NewOrchestrator(graph, DefaultConfig(), observer).Provision(context.Background(), request())
	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if result.ProjectId != "proj-1" || result.ProjectName != "roel-emrys" || result.ServiceId != "svc-1" || result.EnvironmentId != "env-a" {
		t.Fatalf("unexpected result %+v", result)
	}

	if result.Domain != "roel-emrys.up.railway.app" {
		t.Fatalf("unexpected domain %s", result.Domain)
	}

	if result.SetupUrl == nil || *result.SetupUrl != "https://roel-emrys.up.railway.app/setup" {
		t.Fatalf("unexpected setup url %v", result.SetupUrl)
	}

	if result.RunId == "" {
		t.Fatalf("a run id should have been assigned")
	}

	expected := strings.Join(operations, ",")
	if strings.Join(graph.operations(), ",") != expected {
		t.Fatalf("operations should have been %s, were %v", expected, graph.operations())
	}

	if len(observer.events) != 14 || observer.events[0] != "start create project" || observer.events[13] != "ok deploy" {
		t.Fatalf("unexpected observer events %v", observer.events)
	}
}

func TestProvisionSendsExpectedInputs(t *testing.T) {
	graph := happyGraph()

	_, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), request())
	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	projectInput := graph.calls[0].variables["input"].(map[string]any)
	if projectInput["name"] != "roel-emrys" {
		t.Fatalf("project name was %v", projectInput["name"])
	}

	serviceInput := graph.calls[2].variables["input"].(map[string]any)
	if serviceInput["projectId"] != "proj-1" || serviceInput["source"].(map[string]any)["repo"] != "arjunkomath/openclaw-railway-template" {
		t.Fatalf("unexpected service input %v", serviceInput)
	}

	volumeInput := graph.calls[3].variables["input"].(map[string]any)
	if volumeInput["mountPath"] != "/data" || volumeInput["environmentId"] != "env-a" {
		t.Fatalf("unexpected volume input %v", volumeInput)
	}

	variableInput := graph.calls[4].variables["input"].(map[string]any)
	variables := variableInput["variables"].(map[string]string)
	if variables[ModelVariable] != "google/gemini-3-pro-preview" || variables[GatewayPortVariable] != "18789" {
		t.Fatalf("unexpected variables %v", variables)
	}

	if _, ok := variables[ChannelTokenVariable]; ok {
		t.Fatalf("the channel token should only be written when supplied")
	}

	if variableInput["serviceId"] != "svc-1" {
		t.Fatalf("unexpected variable input %v", variableInput)
	}

	deployVariables := graph.calls[6].variables
	if deployVariables["serviceId"] != "svc-1" || deployVariables["environmentId"] != "env-a" {
		t.Fatalf("unexpected deploy variables %v", deployVariables)
	}
}

func TestProvisionSelectsFirstEnvironmentWithoutProduction(t *testing.T) {
	graph := happyGraph()
	graph.handlers["project"] = environments("staging", "prod-eu")

	result, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), request())
	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if result.EnvironmentId != "env-a" {
		t.Fatalf("the first environment (staging) should have been selected, got %s", result.EnvironmentId)
	}
}

func TestProvisionPrefersProductionEnvironment(t *testing.T) {
	graph := happyGraph()
	graph.handlers["project"] = environments("staging", "production")

	result, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), request())
	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if result.EnvironmentId != "env-b" {
		t.Fatalf("production should have been selected, got %s", result.EnvironmentId)
	}
}

func TestProvisionAbortsAtVariables(t *testing.T) {
	graph := happyGraph()
	graph.handlers["variableCollectionUpsert"] = transportError(500)

	_, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), request())

	var abortError *AbortError
	if !errors.As(err, &abortError) {
		t.Fatalf("expected an AbortError, got %v", err)
	}

	if abortError.Step != StepSetVariables {
		t.Fatalf("expected the run to stop at %s, stopped at %s", StepSetVariables, abortError.Step)
	}

	partial := abortError.Context
	if partial.ProjectId != "proj-1" || partial.EnvironmentId != "env-a" || partial.ServiceId != "svc-1" {
		t.Fatalf("the partial context should hold the captured ids, was %+v", partial)
	}

	if partial.Domain != "" || partial.Deployed {
		t.Fatalf("no domain or deployment should have been recorded, was %+v", partial)
	}

	var transport *client.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("the cause should have been kept, got %v", err)
	}

	for _, operation := range graph.operations() {
		if operation == "serviceDomainCreate" || operation == "serviceInstanceDeploy" {
			t.Fatalf("no step should run after an abort, saw %s", operation)
		}
	}
}

func TestProvisionAbortsOnVariableApiErrors(t *testing.T) {
	graph := happyGraph()
	graph.handlers["variableCollectionUpsert"] = apiErrors("invalid variables")

	_, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), request())

	var emptyResult *EmptyResultError
	if !errors.As(err, &emptyResult) || !strings.Contains(err.Error(), "invalid variables") {
		t.Fatalf("expected an EmptyResultError carrying the API error, got %v", err)
	}
}

func TestProvisionContinuesPastAdvisorySteps(t *testing.T) {
	graph := happyGraph()
	graph.handlers["volumeCreate"] = transportError(500)
	graph.handlers["serviceDomainCreate"] = apiErrors("domain limit reached")
	observer := &recordingObserver{}

	result, err := NewOrchestrator(graph, DefaultConfig(), observer).Provision(context.Background(), request())
	if err != nil {
		t.Fatalf("advisory failures should not stop the run: %v", err)
	}

	if result.Domain != "pending..." {
		t.Fatalf("the domain should have been recorded as pending, was %s", result.Domain)
	}

	if result.SetupUrl != nil {
		t.Fatalf("there should be no setup url without a domain, was %s", *result.SetupUrl)
	}

	if len(result.Warnings) != 2 || result.Warnings[0].Step != StepCreateVolume || result.Warnings[1].Step != StepCreateDomain {
		t.Fatalf("both failures should have been recorded, were %+v", result.Warnings)
	}

	if graph.operations()[len(graph.calls)-1] != "serviceInstanceDeploy" {
		t.Fatalf("the deployment should have been triggered")
	}

	if !strings.Contains(strings.Join(observer.events, ","), "fail create volume") {
		t.Fatalf("observers should see advisory failures, saw %v", observer.events)
	}
}

func TestProvisionVolumeWithoutId(t *testing.T) {
	graph := happyGraph()
	graph.handlers["volumeCreate"] = data(map[string]any{"volumeCreate": map[string]any{}})

	result, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), request())
	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if len(result.Warnings) != 0 {
		t.Fatalf("a volume without an id is not a failure, got %+v", result.Warnings)
	}
}

func TestProvisionUnassignedDomainIsPending(t *testing.T) {
	graph := happyGraph()
	graph.handlers["serviceDomainCreate"] = data(map[string]any{"serviceDomainCreate": map[string]any{"id": "dom-1"}})

	result, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), request())
	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if result.Domain != "pending..." || result.SetupUrl != nil || len(result.Warnings) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestProvisionAbortsWithoutProjectId(t *testing.T) {
	graph := happyGraph()
	graph.handlers["projectCreate"] = apiErrors("Not Authorized")

	_, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), request())

	var abortError *AbortError
	if !errors.As(err, &abortError) || abortError.Step != StepCreateProject {
		t.Fatalf("expected an abort at %s, got %v", StepCreateProject, err)
	}

	if len(graph.calls) != 1 {
		t.Fatalf("only the project mutation should have run, saw %v", graph.operations())
	}
}

func TestProvisionAbortsWithoutEnvironments(t *testing.T) {
	graph := happyGraph()
	graph.handlers["project"] = environments()

	_, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), request())

	var abortError *AbortError
	if !errors.As(err, &abortError) || abortError.Step != StepSelectEnvironment {
		t.Fatalf("expected an abort at %s, got %v", StepSelectEnvironment, err)
	}

	if abortError.Context.ProjectId != "proj-1" {
		t.Fatalf("the project id should have been kept, was %+v", abortError.Context)
	}
}

func TestProvisionAbortsWhenDeployIsRejected(t *testing.T) {
	graph := happyGraph()
	graph.handlers["serviceInstanceDeploy"] = data(map[string]any{"serviceInstanceDeploy": false})

	_, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), request())

	var abortError *AbortError
	if !errors.As(err, &abortError) || abortError.Step != StepDeploy {
		t.Fatalf("expected an abort at %s, got %v", StepDeploy, err)
	}

	if abortError.Context.Domain != "roel-emrys.up.railway.app" {
		t.Fatalf("the domain should have been kept, was %+v", abortError.Context)
	}
}

func TestProvisionRejectsIncompleteRequests(t *testing.T) {
	tests := []struct {
		name    string
		request Request
	}{
		{"no human", Request{BuddyName: "emrys", ModelId: "m"}},
		{"no buddy", Request{HumanName: "roel", ModelId: "m"}},
		{"no model", Request{HumanName: "roel", BuddyName: "emrys"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			graph := happyGraph()

			_, err := NewOrchestrator(graph, DefaultConfig()).Provision(context.Background(), test.request)

			var configurationError *client.ConfigurationError
			if !errors.As(err, &configurationError) {
				t.Fatalf("expected a ConfigurationError, got %v", err)
			}

			if len(graph.calls) != 0 {
				t.Fatalf("no remote call should have been made")
			}
		})
	}
}

func TestMachineChecksPreconditions(t *testing.T) {
	ran := false
	machine := Machine{Steps: []Step{{
		Name:     "needs service",
		Requires: []Field{ServiceId, EnvironmentId},
		Run: func(ctx context.Context, env Env, state Context) (Context, error) {
			ran = true
			return state, nil
		},
	}}}

	_, err := machine.Run(context.Background(), Env{}, Context{EnvironmentId: "env-1"})

	var preconditionError *PreconditionError
	if !errors.As(err, &preconditionError) {
		t.Fatalf("expected a PreconditionError, got %v", err)
	}

	if len(preconditionError.Missing) != 1 || preconditionError.Missing[0] != ServiceId {
		t.Fatalf("unexpected missing fields %v", preconditionError.Missing)
	}

	if ran {
		t.Fatalf("the step should not have run")
	}
}

func TestBuildVariables(t *testing.T) {
	config := DefaultConfig()
	config.CatalogApiKey = "key-1"

	variables := BuildVariables(config, Request{ModelId: "google/gemini-3-pro", ChannelToken: "tg-1"})

	expected := map[string]string{
		ModelVariable:         "google/gemini-3-pro",
		StateDirVariable:      "/data/.openclaw",
		WorkspaceDirVariable:  "/data/workspace",
		GatewayHostVariable:   "127.0.0.1",
		GatewayPortVariable:   "18789",
		ChannelTokenVariable:  "tg-1",
		CatalogApiKeyVariable: "key-1",
	}

	if len(variables) != len(expected) {
		t.Fatalf("expected %d variables, got %v", len(expected), variables)
	}

	for key, value := range expected {
		if variables[key] != value {
			t.Errorf("%s = %s; want %s", key, variables[key], value)
		}
	}
}

func TestConfigWithDefaults(t *testing.T) {
	config := Config{TemplateRepo: "me/template"}.WithDefaults()

	if config.TemplateRepo != "me/template" || config.MountPath != "/data" || config.PendingDomain != "pending..." {
		t.Fatalf("unexpected config %+v", config)
	}
}
