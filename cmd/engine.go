package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbansight/geocore/internal/access"
	"github.com/urbansight/geocore/internal/cityrank"
	"github.com/urbansight/geocore/internal/dataset"
	"github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/geoerr"
	"github.com/urbansight/geocore/internal/isochrone"
	"github.com/urbansight/geocore/internal/route"
	"github.com/urbansight/geocore/internal/spatial"
	"github.com/urbansight/geocore/internal/suitability"
	"github.com/urbansight/geocore/internal/travel"
)

// Dataset source flags shared by every command that needs the index.
var (
	flagPOIFile    string
	flagRegionFile string
	flagShapefile  string
)

// registerDataFlags attaches the dataset source flags to a command.
func registerDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPOIFile, "pois", "", "GeoJSON file of points of interest")
	cmd.Flags().StringVar(&flagRegionFile, "regions", "", "GeoJSON file of demographic regions")
	cmd.Flags().StringVar(&flagShapefile, "shapefile", "", "shapefile of demographic regions")
}

// engine bundles the wired components for CLI commands and the server.
type engine struct {
	index       *spatial.Index
	provider    travel.Provider
	isochrones  *isochrone.Builder
	access      *access.Scorer
	suitability *suitability.Scorer
	optimizer   *route.Optimizer
	meetings    *route.MeetingPointPlanner
	ranker      *cityrank.Ranker
	pool        *pgxpool.Pool
	stats       spatial.RebuildStats
}

// newEngine builds the component graph from configuration and loads the
// spatial index from whichever data sources are configured.
func newEngine(ctx context.Context) (*engine, error) {
	e := &engine{index: spatial.NewIndex(cfg.Index.CellSizeDegrees)}

	e.provider = buildProvider()
	e.isochrones = isochrone.NewBuilder(e.provider, cfg.Isochrone.Workers)
	e.access = access.NewScorer(e.index, e.provider, cfg.Access.Workers)
	e.suitability = suitability.NewScorer(e.index)
	e.optimizer = route.NewOptimizer(e.provider)
	e.meetings = route.NewMeetingPointPlanner(e.index, e.provider)
	e.ranker = cityrank.NewRanker(cfg.Isochrone.Workers)

	if err := e.loadData(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// buildProvider returns the travel provider chain: live matrix first when
// configured, geometric fallback always last.
func buildProvider() travel.Provider {
	geometric := travel.NewGeometricProvider()
	if cfg.Matrix.BaseURL == "" {
		zap.L().Info("travel: no matrix provider configured, using geometric estimates")
		return geometric
	}
	client := travel.NewMatrixClient(cfg.Matrix.BaseURL, cfg.Matrix.APIKey,
		travel.WithRateLimit(cfg.Matrix.QPS, int(cfg.Matrix.QPS)),
		travel.WithRetryConfig(geoerr.RetryConfig{MaxAttempts: cfg.Matrix.MaxAttempts}),
		travel.WithHTTPClient(httpClientWithTimeout(cfg.Matrix.TimeoutSecs)),
	)
	return travel.NewFailover(client, geometric)
}

// loadData populates the index from the configured sources: file flags first,
// then PostGIS when a database URL is set. No sources leaves an empty index,
// which is fine for route and city commands.
func (e *engine) loadData(ctx context.Context) error {
	var pois []spatial.POI
	var regions []spatial.Region

	if flagPOIFile != "" {
		loaded, err := dataset.LoadPOIsFromGeoJSON(flagPOIFile)
		if err != nil {
			return err
		}
		pois = append(pois, loaded...)
	}
	if flagRegionFile != "" {
		loaded, err := dataset.LoadRegionsFromGeoJSON(flagRegionFile)
		if err != nil {
			return err
		}
		regions = append(regions, loaded...)
	}
	if flagShapefile != "" {
		loaded, err := dataset.LoadRegionsFromShapefile(flagShapefile, dataset.DefaultShapefileFields())
		if err != nil {
			return err
		}
		regions = append(regions, loaded...)
	}

	if cfg.Store.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "geocore: connect database")
		}
		e.pool = pool
		loader := dataset.NewPGLoader(pool)
		dbPOIs, err := loader.LoadPOIs(ctx)
		if err != nil {
			return err
		}
		zones, err := loader.LoadBusinessZones(ctx)
		if err != nil {
			return err
		}
		dbRegions, err := loader.LoadRegions(ctx)
		if err != nil {
			return err
		}
		pois = append(pois, dbPOIs...)
		pois = append(pois, zones...)
		regions = append(regions, dbRegions...)
	}

	if len(pois) > 0 || len(regions) > 0 {
		e.stats = e.index.Rebuild(pois, regions)
	}
	return nil
}

// Close releases the database pool, if any.
func (e *engine) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

func (e *engine) suitabilityConfig() suitability.Config {
	c := suitability.DefaultConfig()
	if cfg.Suitability.DemographicWeight > 0 || cfg.Suitability.ScarcityWeight > 0 || cfg.Suitability.ProximityWeight > 0 {
		c.DemographicWeight = cfg.Suitability.DemographicWeight
		c.ScarcityWeight = cfg.Suitability.ScarcityWeight
		c.ProximityWeight = cfg.Suitability.ProximityWeight
	}
	if cfg.Suitability.CompetitorRadiusMeters > 0 {
		c.CompetitorRadiusMeters = cfg.Suitability.CompetitorRadiusMeters
	}
	if cfg.Suitability.BusinessRadiusMeters > 0 {
		c.BusinessRadiusMeters = cfg.Suitability.BusinessRadiusMeters
	}
	return c
}

// parseLocation parses a "lat,lng" flag value.
func parseLocation(s string) (geo.Location, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Location{}, eris.Errorf("geocore: invalid location %q, want lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Location{}, eris.Wrapf(err, "geocore: invalid latitude in %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Location{}, eris.Wrapf(err, "geocore: invalid longitude in %q", s)
	}
	loc := geo.Location{Lat: lat, Lng: lng}
	if err := loc.Validate(); err != nil {
		return geo.Location{}, err
	}
	return loc, nil
}

// printJSON renders a result to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "geocore: encode output")
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

func httpClientWithTimeout(secs int) *http.Client {
	return &http.Client{Timeout: time.Duration(secs) * time.Second}
}

// contextWithTimeout mirrors the provider timeout for one-shot CLI calls.
func contextWithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 2*time.Minute)
}
