package provisioning

import (
	"context"
	"github.com/buddyfleet/buddyops/cmd/internal/client"
	"github.com/buddyfleet/buddyops/cmd/internal/strutil"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Result is returned when every fatal step succeeded.
type Result struct {
	RunId         string    `json:"run_id"`
	ProjectId     string    `json:"project_id"`
	ProjectName   string    `json:"project_name"`
	ServiceId     string    `json:"service_id"`
	EnvironmentId string    `json:"environment_id"`
	Domain        string    `json:"domain"`
	SetupUrl      *string   `json:"setup_url"`
	Warnings      []Warning `json:"warnings,omitempty"`
}

type Orchestrator struct {
	Client    client.ResourceGraphClient
	Config    Config
	Observers []Observer
}

func NewOrchestrator(resourceGraph client.ResourceGraphClient, config Config, observers ...Observer) *Orchestrator {
	return &Orchestrator{
		Client:    resourceGraph,
		Config:    config.WithDefaults(),
		Observers: observers,
	}
}

// Provision creates the remote environment of a new buddy. On failure the returned error is an
// *AbortError holding the partial context, or a *client.ConfigurationError when the request was
// rejected before any remote call.
func (o *Orchestrator) Provision(ctx context.Context, request Request) (Result, error) {
	if err := validate(request); err != nil {
		return Result{}, err
	}

	machine := Machine{
		Steps:     Steps(),
		Observers: o.Observers,
	}

	env := Env{
		Client:  o.Client,
		Config:  o.Config,
		Request: request,
	}

	state, err := machine.Run(ctx, env, Context{RunId: uuid.New().String()})

	if err != nil {
		return Result{}, err
	}

	return Result{
		RunId:         state.RunId,
		ProjectId:     state.ProjectId,
		ProjectName:   state.ProjectName,
		ServiceId:     state.ServiceId,
		EnvironmentId: state.EnvironmentId,
		Domain:        state.Domain,
		SetupUrl:      o.setupUrl(state.Domain),
		Warnings:      state.Warnings,
	}, nil
}

// setupUrl is nil until the platform has assigned a real domain.
func (o *Orchestrator) setupUrl(domain string) *string {
	if domain == "" || domain == o.Config.PendingDomain {
		return nil
	}

	return lo.ToPtr("https://" + domain + "/setup")
}

func validate(request Request) error {
	if strutil.IsBlank(request.HumanName) {
		return &client.ConfigurationError{Setting: "human name"}
	}

	if strutil.IsBlank(request.BuddyName) {
		return &client.ConfigurationError{Setting: "buddy name"}
	}

	if strutil.IsBlank(request.ModelId) {
		return &client.ConfigurationError{Setting: "model id"}
	}

	return nil
}
