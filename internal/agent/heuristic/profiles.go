package heuristic

import "sort"

// Profile describes a keyword-driven perspective. Signals are matched as
// case-insensitive substrings of the topic and any "context" metadata.
type Profile struct {
	Perspective    string   `yaml:"perspective"`
	Description    string   `yaml:"description"`
	Focus          string   `yaml:"focus"`
	SupportSignals []string `yaml:"support_signals"`
	OpposeSignals  []string `yaml:"oppose_signals"`
	BaseConfidence float64  `yaml:"base_confidence"`
}

const defaultBaseConfidence = 0.5

var builtins = map[string]Profile{
	"cost": {
		Perspective: "cost",
		Description: "Total cost of ownership: licensing, infrastructure and people time.",
		Focus:       "total cost of ownership",
		SupportSignals: []string{
			"open source", "open-source", "serverless", "consolidate", "reduce", "cheaper",
			"free tier", "pay as you go", "pay-as-you-go", "autoscal", "spot",
		},
		OpposeSignals: []string{
			"license", "enterprise", "vendor", "rewrite", "migrate", "migration",
			"dedicated", "premium", "multi-region", "hire",
		},
		BaseConfidence: 0.55,
	},
	"security": {
		Perspective: "security",
		Description: "Attack surface, data protection and compliance.",
		Focus:       "attack surface",
		SupportSignals: []string{
			"encrypt", "mtls", "zero trust", "zero-trust", "sso", "oauth", "audit",
			"least privilege", "sandbox", "signed", "managed identity",
		},
		OpposeSignals: []string{
			"public", "expose", "plaintext", "shared credential", "root", "eval",
			"third-party", "third party", "self-hosted", "webhook", "unauthenticated",
		},
		BaseConfidence: 0.6,
	},
	"performance": {
		Perspective: "performance",
		Description: "Latency, throughput and resource efficiency.",
		Focus:       "latency and throughput",
		SupportSignals: []string{
			"cache", "grpc", "binary", "async", "batch", "index", "in-memory",
			"connection pool", "streaming", "compiled", "edge",
		},
		OpposeSignals: []string{
			"orm", "polling", "synchronous", "json over http", "interpreted",
			"cross-region", "serialization", "reflection", "cold start",
		},
		BaseConfidence: 0.55,
	},
	"maintainability": {
		Perspective: "maintainability",
		Description: "Long-term readability, ownership and change cost.",
		Focus:       "long-term change cost",
		SupportSignals: []string{
			"standard", "simplify", "consolidate", "typed", "monorepo", "refactor",
			"deprecate", "remove", "convention", "documentation",
		},
		OpposeSignals: []string{
			"custom", "bespoke", "fork", "homegrown", "home-grown", "framework",
			"microservice", "polyglot", "dsl", "plugin",
		},
		BaseConfidence: 0.5,
	},
	"scalability": {
		Perspective: "scalability",
		Description: "Behavior under growth in load, data and teams.",
		Focus:       "growth headroom",
		SupportSignals: []string{
			"horizontal", "partition", "shard", "queue", "event", "stateless",
			"autoscal", "kubernetes", "distributed", "replica",
		},
		OpposeSignals: []string{
			"single node", "single-node", "monolith", "vertical", "global lock",
			"sqlite", "singleton", "stateful", "cron",
		},
		BaseConfidence: 0.5,
	},
	"integration": {
		Perspective: "integration",
		Description: "Fit with existing systems, APIs and data contracts.",
		Focus:       "fit with existing systems",
		SupportSignals: []string{
			"api", "openapi", "grpc", "adapter", "compatible", "standard",
			"webhook", "sdk", "protocol", "schema",
		},
		OpposeSignals: []string{
			"breaking", "proprietary", "lock-in", "replace", "rewrite", "legacy",
			"incompatible", "custom protocol", "big bang",
		},
		BaseConfidence: 0.5,
	},
	"developer-experience": {
		Perspective: "developer-experience",
		Description: "Day-to-day ergonomics for the engineers doing the work.",
		Focus:       "day-to-day ergonomics",
		SupportSignals: []string{
			"cli", "tooling", "hot reload", "local", "type", "lint", "template",
			"generator", "fast feedback", "self-service",
		},
		OpposeSignals: []string{
			"manual", "ticket", "yaml", "boilerplate", "approval", "slow build",
			"context switch", "learning curve", "on-call",
		},
		BaseConfidence: 0.5,
	},
}

// Builtin returns the built-in profile for perspective.
func Builtin(perspective string) (Profile, bool) {
	p, ok := builtins[perspective]
	return p, ok
}

// BuiltinPerspectives returns the names of the built-in profiles, sorted.
func BuiltinPerspectives() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generic returns a profile with no signals for perspectives that have no
// keyword set of their own. Agents using it always start NEUTRAL.
func Generic(perspective string) Profile {
	return Profile{
		Perspective:    perspective,
		Focus:          perspective,
		BaseConfidence: defaultBaseConfidence,
	}
}
