package entry

import (
	"context"
	"errors"
	"github.com/buddyfleet/buddyops/cmd/internal/args"
	"github.com/buddyfleet/buddyops/cmd/internal/client"
	"github.com/buddyfleet/buddyops/cmd/internal/fleet"
	"github.com/buddyfleet/buddyops/cmd/internal/provisioning"
	"github.com/buddyfleet/buddyops/cmd/internal/resolver"
	"github.com/buddyfleet/buddyops/cmd/internal/strutil"
	"go.uber.org/zap"
)

// Resolver is satisfied by *resolver.ModelTierResolver.
type Resolver interface {
	Resolve(ctx context.Context) resolver.Result
}

// Discover resolves the current model tiers. It never fails, a failed discovery is reported inside
// the result.
func Discover(ctx context.Context, arguments args.Arguments) resolver.Result {
	return NewResolver(arguments).Resolve(ctx)
}

func NewResolver(arguments args.Arguments) *resolver.ModelTierResolver {
	catalogClient := client.NewGeminiCatalogClient(arguments.CatalogUrl, arguments.CatalogApiKey, arguments.CatalogTimeout)
	return resolver.NewModelTierResolver(catalogClient, ResolverConfig(arguments))
}

// ResolverConfig maps the arguments onto the resolver settings. Empty values keep their defaults.
func ResolverConfig(arguments args.Arguments) resolver.Config {
	return resolver.Config{
		Capability:  arguments.Capability,
		Generations: arguments.Generations,
		HighKeyword: arguments.HighKeyword,
		LowKeyword:  arguments.LowKeyword,
		Namespace:   arguments.Namespace,
		DefaultHigh: arguments.DefaultHigh,
		DefaultLow:  arguments.DefaultLow,
	}.WithDefaults()
}

func ProvisioningConfig(arguments args.Arguments) provisioning.Config {
	return provisioning.Config{
		TemplateRepo:    arguments.TemplateRepo,
		ServiceName:     arguments.ServiceName,
		EnvironmentName: arguments.Environment,
		MountPath:       arguments.MountPath,
		CatalogApiKey:   arguments.CatalogApiKey,
	}.WithDefaults()
}

func NewResourceGraph(arguments args.Arguments) (client.ResourceGraphClient, error) {
	return client.NewRailwayApiClient(arguments.RailwayUrl, arguments.RailwayToken, arguments.RailwayTimeout)
}

// Spawner creates new buddies.
type Spawner struct {
	ResourceGraph client.ResourceGraphClient
	// Resolver picks the model when the request does not name one.
	Resolver Resolver
	Tier     string
	Config   provisioning.Config
	// RejectDuplicates refuses a project name that already exists instead of only warning.
	RejectDuplicates bool
	Observers        []provisioning.Observer
}

// Spawn provisions the buddy named by the first two positional arguments: the human and the buddy.
func Spawn(ctx context.Context, arguments args.Arguments) (provisioning.Result, error) {
	if len(arguments.Positional) != 2 {
		return provisioning.Result{}, errors.New("spawn expects exactly two arguments, the human name and the buddy name")
	}

	resourceGraph, err := NewResourceGraph(arguments)

	if err != nil {
		return provisioning.Result{}, err
	}

	spawner := Spawner{
		ResourceGraph:    resourceGraph,
		Resolver:         NewResolver(arguments),
		Tier:             arguments.Tier,
		Config:           ProvisioningConfig(arguments),
		RejectDuplicates: arguments.RejectDuplicates,
		Observers:        []provisioning.Observer{provisioning.LoggingObserver{}},
	}

	return spawner.Spawn(ctx, provisioning.Request{
		HumanName:    arguments.Positional[0],
		BuddyName:    arguments.Positional[1],
		ModelId:      arguments.ModelId,
		ChannelToken: arguments.ChannelToken,
	})
}

func (s Spawner) Spawn(ctx context.Context, request provisioning.Request) (provisioning.Result, error) {
	if strutil.IsBlank(request.HumanName) {
		return provisioning.Result{}, &client.ConfigurationError{Setting: "human name"}
	}

	if strutil.IsBlank(request.BuddyName) {
		return provisioning.Result{}, &client.ConfigurationError{Setting: "buddy name"}
	}

	if strutil.IsBlank(request.ModelId) && s.Resolver != nil {
		tiers := s.Resolver.Resolve(ctx)
		request.ModelId = tiers.ForTier(s.Tier)

		zap.L().Info("discovered model for the buddy",
			zap.String("tier", s.Tier),
			zap.String("model", request.ModelId),
			zap.Bool("degraded", tiers.IsDegraded()))
	}

	if strutil.IsBlank(request.ModelId) {
		return provisioning.Result{}, &client.ConfigurationError{Setting: "model id"}
	}

	if err := s.checkDuplicates(ctx, request.ProjectName()); err != nil {
		return provisioning.Result{}, err
	}

	return provisioning.NewOrchestrator(s.ResourceGraph, s.Config, s.Observers...).Provision(ctx, request)
}

// checkDuplicates only fails when duplicates are rejected. A failed lookup is logged and ignored.
func (s Spawner) checkDuplicates(ctx context.Context, projectName string) error {
	existing, err := fleet.NewReader(s.ResourceGraph).FindByName(ctx, projectName)

	if err != nil {
		zap.L().Warn("could not check for an existing project", zap.String("projectName", projectName), zap.Error(err))
		return nil
	}

	if len(existing) == 0 {
		return nil
	}

	if s.RejectDuplicates {
		return &client.ConfigurationError{Setting: "buddy name", Reason: "a project named " + projectName + " already exists"}
	}

	zap.L().Warn("a project with the same name already exists, another one will be created",
		zap.String("projectName", projectName),
		zap.String("existingProjectId", existing[0].ProjectId))

	return nil
}

// Buddies runs one of the read-only fleet commands: whoami, list or status <project>.
func Buddies(ctx context.Context, arguments args.Arguments) (any, error) {
	if len(arguments.Positional) == 0 {
		return nil, errors.New("expected a command: whoami, list or status <project>")
	}

	resourceGraph, err := NewResourceGraph(arguments)

	if err != nil {
		return nil, err
	}

	return RunFleetCommand(ctx, fleet.NewReader(resourceGraph), arguments.Positional)
}

func RunFleetCommand(ctx context.Context, reader *fleet.Reader, command []string) (any, error) {
	switch command[0] {
	case "whoami":
		return reader.WhoAmI(ctx)
	case "list":
		return reader.ListBuddies(ctx)
	case "status":
		if len(command) != 2 {
			return nil, errors.New("status expects the project name")
		}
		return reader.Status(ctx, command[1])
	default:
		return nil, errors.New("unknown command " + command[0])
	}
}
