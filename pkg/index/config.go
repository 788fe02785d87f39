package index

import (
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/grove/internal/util"
	"github.com/OFFIS-RIT/grove/pkg/graph"
	"github.com/OFFIS-RIT/grove/pkg/tokenizer"
)

// ErrInvalidConfig marks a configuration value the pipeline cannot run with.
// It is raised before any work starts and before any storage is touched.
var ErrInvalidConfig = errors.New("invalid index config")

// Defaults applied by NewConfigFromEnv when the environment does not override
// them.
const (
	DefaultMaxClusterSize    = 10
	DefaultRandomSeed        = 0xDEADBEEF
	DefaultMaxContextTokens  = 16000
	DefaultMaxReportLength   = 2000
	DefaultReportConcurrency = 4
)

// Config carries the knobs of one indexing pipeline run.
type Config struct {
	// MaxClusterSize is the largest community size the clusterer leaves
	// unsubdivided.
	MaxClusterSize int
	// UseLargestComponent restricts clustering to the largest connected
	// component of the entity graph.
	UseLargestComponent bool
	// RandomSeed drives the clusterer's deterministic visit order. Must be
	// positive.
	RandomSeed int64
	// MaxContextTokens is the token budget for each community context.
	MaxContextTokens int
	// MaxReportLength is the word bound handed to the summarizer prompt.
	MaxReportLength int
	// ReportConcurrency bounds parallel summarizer calls within one level.
	ReportConcurrency int
	// WeightPolicy selects how duplicate relationship weights combine.
	WeightPolicy graph.WeightPolicy
	// TokenEncoding names the tiktoken encoding used for counting.
	TokenEncoding string
}

// NewConfigFromEnv builds a Config from the environment, falling back to the
// package defaults.
func NewConfigFromEnv() Config {
	return Config{
		MaxClusterSize:      int(util.GetEnvNumeric("MAX_CLUSTER_SIZE", DefaultMaxClusterSize)),
		UseLargestComponent: util.GetEnvBool("USE_LARGEST_CONNECTED_COMPONENT", false),
		RandomSeed:          util.GetEnvInt64("RANDOM_SEED", DefaultRandomSeed),
		MaxContextTokens:    int(util.GetEnvNumeric("MAX_CONTEXT_TOKENS", DefaultMaxContextTokens)),
		MaxReportLength:     int(util.GetEnvNumeric("MAX_REPORT_LENGTH", DefaultMaxReportLength)),
		ReportConcurrency:   int(util.GetEnvNumeric("REPORT_CONCURRENCY", DefaultReportConcurrency)),
		WeightPolicy:        graph.WeightSum,
		TokenEncoding:       util.GetEnvString("TOKEN_ENCODING", tokenizer.DefaultEncoding),
	}
}

// Validate rejects knob values the pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.MaxClusterSize <= 0:
		return fmt.Errorf("%w: max cluster size %d", ErrInvalidConfig, c.MaxClusterSize)
	case c.RandomSeed <= 0:
		return fmt.Errorf("%w: random seed %d", ErrInvalidConfig, c.RandomSeed)
	case c.MaxContextTokens <= 0:
		return fmt.Errorf("%w: max context tokens %d", ErrInvalidConfig, c.MaxContextTokens)
	case c.MaxReportLength <= 0:
		return fmt.Errorf("%w: max report length %d", ErrInvalidConfig, c.MaxReportLength)
	case c.ReportConcurrency <= 0:
		return fmt.Errorf("%w: report concurrency %d", ErrInvalidConfig, c.ReportConcurrency)
	}
	return nil
}
