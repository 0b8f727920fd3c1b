package resolver

import (
	"context"
	"github.com/buddyfleet/buddyops/cmd/internal/client"
	"github.com/buddyfleet/buddyops/cmd/internal/model/catalog"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	stringslices "k8s.io/utils/strings/slices"
	"strings"
)

// ModelTierResolver picks a "high" and a "low" model from the catalog. It never fails: when the
// catalog can not be read, the configured defaults are returned as a degraded result.
type ModelTierResolver struct {
	Catalog client.CatalogClient
	Config  Config
}

func NewModelTierResolver(catalogClient client.CatalogClient, config Config) *ModelTierResolver {
	return &ModelTierResolver{
		Catalog: catalogClient,
		Config:  config.WithDefaults(),
	}
}

// Resolve fetches the catalog and derives both tiers. Nothing is kept between calls.
func (r *ModelTierResolver) Resolve(ctx context.Context) Result {
	models, err := r.Catalog.ListModels(ctx)

	if err != nil {
		return r.degraded(err)
	}

	if len(models) == 0 {
		return r.degraded(&EmptyResultError{What: "model catalog"})
	}

	high, low := r.Select(models)

	return Result{
		Kind: Resolved,
		High: high,
		Low:  low,
	}
}

func (r *ModelTierResolver) degraded(cause error) Result {
	zap.L().Warn("model discovery failed, using default models", zap.Error(cause))

	return Result{
		Kind:  Degraded,
		High:  r.Config.DefaultHigh,
		Low:   r.Config.DefaultLow,
		Cause: cause,
	}
}

// Select applies the tier selection to a catalog listing. A tier with no candidate falls back to
// its default.
func (r *ModelTierResolver) Select(models []catalog.ModelDescriptor) (high string, low string) {
	generative := lo.Filter(models, func(model catalog.ModelDescriptor, index int) bool {
		return stringslices.Contains(model.SupportedGenerationMethods, r.Config.Capability)
	})

	generation := r.newestGeneration(generative)

	high = r.pick(generation, r.Config.HighKeyword, r.Config.DefaultHigh)
	low = r.pick(generation, r.Config.LowKeyword, r.Config.DefaultLow)

	return high, low
}

// newestGeneration returns the models of the first generation marker, newest first, that matches
// anything. Older generations are never merged in.
func (r *ModelTierResolver) newestGeneration(models []catalog.ModelDescriptor) []catalog.ModelDescriptor {
	for _, marker := range r.Config.Generations {
		subset := lo.Filter(models, func(model catalog.ModelDescriptor, index int) bool {
			return strings.Contains(model.Name, marker)
		})

		if len(subset) != 0 {
			zap.L().Debug("selected model generation", zap.String("generation", marker), zap.Int("models", len(subset)))
			return subset
		}
	}

	return nil
}

// pick returns the lexicographically greatest name containing the keyword. This stands in for
// "newest variant" and is not a version comparison.
func (r *ModelTierResolver) pick(models []catalog.ModelDescriptor, keyword string, fallback string) string {
	names := lo.FilterMap(models, func(model catalog.ModelDescriptor, index int) (string, bool) {
		return model.Name, strings.Contains(strings.ToLower(model.Name), strings.ToLower(keyword))
	})

	if len(names) == 0 {
		zap.L().Warn("no catalog model matched the tier, using the default", zap.String("keyword", keyword), zap.String("default", fallback))
		return fallback
	}

	slices.Sort(names)

	return Normalize(names[len(names)-1], r.Config.Namespace)
}

// Normalize replaces any path style prefix with the provider namespace. Applying it twice gives
// the same result as applying it once.
func Normalize(id string, namespace string) string {
	if index := strings.LastIndex(id, "/"); index >= 0 {
		id = id[index+1:]
	}

	return namespace + "/" + id
}
