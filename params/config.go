package params

import "time"

// RuleClassifierConfig parameterizes the threshold-and-duration stop rule.
type RuleClassifierConfig struct {
	// SpeedThresholdKmh is the speed below which a point counts as stopped.
	SpeedThresholdKmh float64

	// MinStopDuration is the minimum dwell represented by a stopped point.
	// Stopped points carrying less time since their predecessor are treated
	// as noise and dropped.
	MinStopDuration time.Duration
}

var DefaultRuleClassifierConfig = &RuleClassifierConfig{
	SpeedThresholdKmh: 1.0,
	MinStopDuration:   5 * time.Second,
}

// ModelClassifierConfig locates the pre-trained stop classifier artifact.
// Path may be a local file, an s3://bucket/key, or an http(s):// scoring
// service base URL. The artifact is loaded once and never mutated.
type ModelClassifierConfig struct {
	Path string

	// DecisionThreshold is the stop-class probability at or above which a
	// point is labeled stopped. A value in (0,1) overrides the artifact's
	// own threshold; zero defers to the artifact.
	DecisionThreshold float64
}

var DefaultModelClassifierConfig = &ModelClassifierConfig{
	Path:              "",
	DecisionThreshold: 0,
}

type ClassifierMode string

const (
	ClassifierModeRule  ClassifierMode = "rule"
	ClassifierModeModel ClassifierMode = "model"
)

// ClassifierConfig selects and parameterizes one classification strategy.
type ClassifierConfig struct {
	Mode  ClassifierMode
	Rule  *RuleClassifierConfig
	Model *ModelClassifierConfig
}

func DefaultClassifierConfig() *ClassifierConfig {
	return &ClassifierConfig{
		Mode:  ClassifierModeRule,
		Rule:  DefaultRuleClassifierConfig,
		Model: DefaultModelClassifierConfig,
	}
}

// DeriverConfig parameterizes feature derivation.
type DeriverConfig struct {
	// Workers is the number of traces derived concurrently by DeriveGrouped.
	// Each trace is self-contained, so per-trace derivation parallelizes
	// without shared state.
	Workers int
}

var DefaultDeriverConfig = &DeriverConfig{
	Workers: 4,
}

type ListenerConfig struct {
	Network string
	Address string
}

// WebDaemonConfig configures the hosting web daemon.
// The daemon is a collaborator around the core pipeline; it owns upload
// validation, per-file skip policy, and result caching.
type WebDaemonConfig struct {
	ListenerConfig
	DataDir    string
	Classifier *ClassifierConfig

	// MaxUploadBytes bounds one multipart upload.
	MaxUploadBytes int64
	// MaxUploadFiles bounds files per analyze request.
	MaxUploadFiles int
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: ":8010",
		},
		DataDir:        DefaultDatadirRoot,
		Classifier:     DefaultClassifierConfig(),
		MaxUploadBytes: 50 * 1024 * 1024,
		MaxUploadFiles: 20,
	}
}
