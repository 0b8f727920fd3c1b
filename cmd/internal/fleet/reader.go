package fleet

import (
	"context"
	"errors"
	"github.com/avast/retry-go/v4"
	"github.com/buddyfleet/buddyops/cmd/internal/client"
	"github.com/buddyfleet/buddyops/cmd/internal/model/railway"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"strings"
)

// Buddy is a project visible to the API token, with the services it holds.
type Buddy struct {
	ProjectId   string           `json:"project_id"`
	ProjectName string           `json:"project_name"`
	Services    []railway.NameId `json:"services"`
}

type ServiceStatus struct {
	ServiceId   string `json:"service_id"`
	ServiceName string `json:"service_name"`
	// Status is empty when the service was never deployed.
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Url       string `json:"url,omitempty"`
}

type BuddyStatus struct {
	ProjectId   string          `json:"project_id"`
	ProjectName string          `json:"project_name"`
	Services    []ServiceStatus `json:"services"`
}

type NotFoundError struct {
	ProjectName string
}

func (e *NotFoundError) Error() string {
	return "did not find a buddy project with the name " + e.ProjectName
}

// Reader answers read-only questions about the fleet. Every query is retried on transport
// failures.
type Reader struct {
	Client client.ResourceGraphClient
	// Concurrency bounds the per service lookups made by Status.
	Concurrency  int
	RetryOptions []retry.Option
}

func NewReader(resourceGraph client.ResourceGraphClient, retryOptions ...retry.Option) *Reader {
	return &Reader{
		Client:       resourceGraph,
		Concurrency:  4,
		RetryOptions: retryOptions,
	}
}

func (r *Reader) WhoAmI(ctx context.Context) (railway.Me, error) {
	response, err := r.query(ctx, meQuery, nil)

	if err != nil {
		return railway.Me{}, err
	}

	me, ok, err := client.DecodeField[railway.Me](response, "me")

	if err != nil {
		return railway.Me{}, err
	}

	if !ok {
		return railway.Me{}, errors.New("the token does not belong to an account")
	}

	return me, nil
}

// ListBuddies returns every project, sorted by name.
func (r *Reader) ListBuddies(ctx context.Context) ([]Buddy, error) {
	response, err := r.query(ctx, projectsQuery, nil)

	if err != nil {
		return nil, err
	}

	projects, _, err := client.DecodeField[railway.Connection[railway.Project]](response, "projects")

	if err != nil {
		return nil, err
	}

	buddies := lo.Map(projects.Nodes(), func(project railway.Project, index int) Buddy {
		return Buddy{
			ProjectId:   project.Id,
			ProjectName: project.Name,
			Services: lo.Map(project.Services.Nodes(), func(service railway.Service, index int) railway.NameId {
				return service.NameId
			}),
		}
	})

	slices.SortStableFunc(buddies, func(a, b Buddy) int {
		return strings.Compare(a.ProjectName, b.ProjectName)
	})

	return buddies, nil
}

// FindByName returns every project with the given name. Names are not unique.
func (r *Reader) FindByName(ctx context.Context, projectName string) ([]Buddy, error) {
	buddies, err := r.ListBuddies(ctx)

	if err != nil {
		return nil, err
	}

	return lo.Filter(buddies, func(buddy Buddy, index int) bool {
		return buddy.ProjectName == projectName
	}), nil
}

// Status reports the latest deployment of each service in the named project. When several
// projects share the name, the first one listed is used.
func (r *Reader) Status(ctx context.Context, projectName string) (BuddyStatus, error) {
	matches, err := r.FindByName(ctx, projectName)

	if err != nil {
		return BuddyStatus{}, err
	}

	if len(matches) == 0 {
		return BuddyStatus{}, &NotFoundError{ProjectName: projectName}
	}

	if len(matches) > 1 {
		zap.L().Warn("several projects share the name, reporting the first",
			zap.String("projectName", projectName),
			zap.Int("count", len(matches)))
	}

	buddy := matches[0]
	statuses := make([]ServiceStatus, len(buddy.Services))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(lo.Ternary(r.Concurrency > 0, r.Concurrency, 1))

	for index, service := range buddy.Services {
		index := index
		service := service

		group.Go(func() error {
			status, err := r.serviceStatus(groupCtx, service)
			if err != nil {
				return err
			}
			statuses[index] = status
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return BuddyStatus{}, err
	}

	return BuddyStatus{
		ProjectId:   buddy.ProjectId,
		ProjectName: buddy.ProjectName,
		Services:    statuses,
	}, nil
}

func (r *Reader) serviceStatus(ctx context.Context, service railway.NameId) (ServiceStatus, error) {
	response, err := r.query(ctx, latestDeploymentQuery, map[string]any{"id": service.Id})

	if err != nil {
		return ServiceStatus{}, err
	}

	details, _, err := client.DecodeField[railway.Service](response, "service")

	if err != nil {
		return ServiceStatus{}, err
	}

	status := ServiceStatus{
		ServiceId:   service.Id,
		ServiceName: service.Name,
	}

	if deployments := details.Deployments.Nodes(); len(deployments) != 0 {
		latest := deployments[0]
		status.Status = latest.Status
		status.CreatedAt = latest.CreatedAt
		status.Url = latest.StaticUrl
	}

	return status, nil
}

// query treats an error list as a failure, as a partial read is of no use to the caller.
func (r *Reader) query(ctx context.Context, query string, variables map[string]any) (client.Response, error) {
	response, err := client.QueryWithRetry(ctx, r.Client, query, variables, r.RetryOptions...)

	if err != nil {
		return client.Response{}, err
	}

	if response.HasErrors() {
		return client.Response{}, client.JoinApiErrors(response.Errors)
	}

	return response, nil
}
