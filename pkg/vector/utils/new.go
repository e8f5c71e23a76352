// Package vectorutils builds a vector.Driver from configuration.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/papercomputeco/advisor/pkg/vector"
	"github.com/papercomputeco/advisor/pkg/vector/chroma"
	"github.com/papercomputeco/advisor/pkg/vector/pgvector"
	"github.com/papercomputeco/advisor/pkg/vector/qdrant"
	"github.com/papercomputeco/advisor/pkg/vector/sqlitevec"
)

// Supported vector store providers.
const (
	ProviderSQLite   = "sqlite"
	ProviderChroma   = "chroma"
	ProviderQdrant   = "qdrant"
	ProviderPgvector = "pgvector"
)

// Providers lists the accepted values for db.provider.
var Providers = []string{ProviderSQLite, ProviderChroma, ProviderQdrant, ProviderPgvector}

type NewVectorDriverOpts struct {
	ProviderType   string
	CollectionName string

	// PersistPath is the on-disk location for the sqlite provider.
	PersistPath string

	// TargetURL addresses networked providers: a URL for chroma, host:port
	// for qdrant, a connection string for pgvector.
	TargetURL string

	// APIKey authenticates against qdrant when set.
	APIKey string

	Dimensions uint
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderSQLite, "":
		path, err := sqlitevec.ResolvePath(o.PersistPath)
		if err != nil {
			return nil, err
		}
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:         path,
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)

	case ProviderChroma:
		return chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.CollectionName,
		}, o.Logger)

	case ProviderQdrant:
		host, port, err := splitHostPort(o.TargetURL, qdrant.DefaultPort)
		if err != nil {
			return nil, err
		}
		return qdrant.NewDriver(ctx, qdrant.Config{
			Host:           host,
			Port:           port,
			APIKey:         o.APIKey,
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)

	case ProviderPgvector:
		return pgvector.NewDriver(ctx, pgvector.Config{
			ConnString:     o.TargetURL,
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)

	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

func splitHostPort(target string, defaultPort int) (string, int, error) {
	if target == "" {
		return "", 0, fmt.Errorf("qdrant target is required")
	}
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// no port in target
		return target, defaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}
