package config

// Scenario represents a complete simulation scenario: a platform
// description (hosts/links/netzones — the in-repo replacement for
// SimGrid's XML platform file) plus the service graph and workload that
// runs on it.
type Scenario struct {
	SchemaVersion string            `yaml:"schema_version"`
	Precision     float64           `yaml:"precision,omitempty"`
	Network       *NetworkTuning    `yaml:"network,omitempty"`
	Contexts      *ContextsTuning   `yaml:"contexts,omitempty"`
	Debug         *DebugTuning      `yaml:"debug,omitempty"`
	Hosts         []Host            `yaml:"hosts"`
	Links         []Link            `yaml:"links,omitempty"`
	NetZones      []NetZone         `yaml:"netzones,omitempty"`
	Services      []Service         `yaml:"services"`
	Workload      []WorkloadPattern `yaml:"workload"`
	Policies      *Policies         `yaml:"policies,omitempty"`
}

// NetworkTuning mirrors the platform-wide network model knobs spec.md
// leaves as configuration: latency/bandwidth correction factors,
// crosstraffic modeling, and the CPU/disk/network model selection.
type NetworkTuning struct {
	LatencyFactor   float64 `yaml:"latency_factor,omitempty"`
	BandwidthFactor float64 `yaml:"bandwidth_factor,omitempty"`
	Crosstraffic    bool    `yaml:"crosstraffic,omitempty"`
	Model           string  `yaml:"model,omitempty"` // "shared" (default) or "constant"
}

// ContextsTuning records the actor-execution-context configuration.
// SimGrid supports several fiber implementations (ucontext, boost,
// threads); the Go kernel always schedules actors as goroutines, so these
// fields are accepted and recorded for compatibility with imported
// scenario files but do not change runtime behavior — see DESIGN.md.
type ContextsTuning struct {
	Factory   string `yaml:"factory,omitempty"`
	StackSize int    `yaml:"stack_size_kb,omitempty"`
}

// DebugTuning carries scheduler-level debugging knobs.
type DebugTuning struct {
	// Breakpoint is a virtual date at which the scheduler raises a trap
	// signal (Engine.OnBreakpoint), letting a driver pause and inspect
	// state exactly once the run reaches it.
	Breakpoint float64 `yaml:"breakpoint"`
}

// Host represents a physical machine: a CPU (core count, one flop/s figure
// per p-state) and the disks attached to it.
type Host struct {
	ID     string    `yaml:"id"`
	Cores  int       `yaml:"cores"`
	Speed  float64   `yaml:"speed,omitempty"`  // flop/s per core, p-state 0; defaults to 1e9
	Speeds []float64 `yaml:"speeds,omitempty"` // additional p-states, speed prepended as index 0
	Disks  []Disk    `yaml:"disks,omitempty"`
	Zone   string    `yaml:"zone,omitempty"`
	// SpeedProfile is a dated timeline of speed changes and on/off events
	// applied to this host's Cpu as virtual time crosses each date, e.g. a
	// diurnal load trace or a scheduled outage.
	SpeedProfile []ProfileEvent `yaml:"speed_profile,omitempty"`
}

// Disk represents one storage device attached to a Host.
type Disk struct {
	ID         string  `yaml:"id"`
	ReadBWBps  float64 `yaml:"read_bw_bps"`
	WriteBWBps float64 `yaml:"write_bw_bps"`
	// ReadProfile/WriteProfile are independent dated timelines for this
	// disk's two directions, since real disks throttle read and write
	// bandwidth independently under contention.
	ReadProfile  []ProfileEvent `yaml:"read_profile,omitempty"`
	WriteProfile []ProfileEvent `yaml:"write_profile,omitempty"`
}

// Link represents a network link between two netpoints (hosts or zone
// gateways).
type Link struct {
	ID            string  `yaml:"id"`
	BandwidthBps  float64 `yaml:"bandwidth_bps"`
	LatencyS      float64 `yaml:"latency_s"`
	SharingPolicy string  `yaml:"sharing_policy,omitempty"` // shared (default), fatpipe, splitduplex, wifi
	// Profile is a dated timeline of bandwidth changes and on/off events
	// applied to this link as virtual time crosses each date.
	Profile []ProfileEvent `yaml:"profile,omitempty"`
}

// ProfileEvent is one dated change applied to a resource's timeline as
// virtual time crosses Date: when On is set, the resource turns on or off;
// otherwise Value replaces its current speed/bandwidth.
type ProfileEvent struct {
	Date  float64 `yaml:"date"`
	Value float64 `yaml:"value,omitempty"`
	On    *bool   `yaml:"on,omitempty"`
}

// NetZone describes one routing zone: a set of member host IDs, the routes
// between pairs of them (each a list of link IDs, applied in order to
// build the route), and the algorithm used to complete missing routes.
type NetZone struct {
	ID        string       `yaml:"id"`
	Hosts     []string     `yaml:"hosts"`
	Routes    []RouteEntry `yaml:"routes,omitempty"`
	Algorithm string       `yaml:"algorithm,omitempty"` // "full" (default) or "floyd"
}

// RouteEntry is one explicit src->dst route, given as an ordered list of
// link IDs to traverse.
type RouteEntry struct {
	Src   string   `yaml:"src"`
	Dst   string   `yaml:"dst"`
	Links []string `yaml:"links"`
}

// Service represents a microservice
type Service struct {
	ID        string     `yaml:"id"`
	Replicas  int        `yaml:"replicas"`
	Model     string     `yaml:"model"`               // cpu, mixed, db_latency
	CPUCores  float64    `yaml:"cpu_cores,omitempty"` // CPU cores per instance (optional; 0 leaves each exec uncapped on its host)
	MemoryMB  float64    `yaml:"memory_mb,omitempty"` // Memory in MB per instance (optional; not used by the simulation)
	Host      string     `yaml:"host,omitempty"`      // Host ID this service's instances run on
	Endpoints []Endpoint `yaml:"endpoints"`
}

// Endpoint represents a service endpoint
type Endpoint struct {
	Path            string           `yaml:"path"`
	MeanCPUMs       float64          `yaml:"mean_cpu_ms"`
	CPUSigmaMs      float64          `yaml:"cpu_sigma_ms"`
	DefaultMemoryMB float64          `yaml:"default_memory_mb,omitempty"` // Default memory usage in MB (optional; not used by the simulation)
	Downstream      []DownstreamCall `yaml:"downstream"`
	NetLatencyMs    LatencySpec      `yaml:"net_latency_ms"`
}

// DownstreamCall represents a call to a downstream service
type DownstreamCall struct {
	To                    string      `yaml:"to"`
	Mode                  string      `yaml:"mode,omitempty"` // sync (default) or async
	CallCountMean         float64     `yaml:"call_count_mean,omitempty"`
	CallLatencyMs         LatencySpec `yaml:"call_latency_ms,omitempty"`
	DownstreamFractionCPU float64     `yaml:"downstream_fraction_cpu,omitempty"`
}

// LatencySpec represents latency with mean and standard deviation
type LatencySpec struct {
	Mean  float64 `yaml:"mean"`
	Sigma float64 `yaml:"sigma"`
}

// WorkloadPattern represents a workload entry point
type WorkloadPattern struct {
	From    string      `yaml:"from"` // e.g., "client"
	To      string      `yaml:"to"`   // e.g., "auth:/auth/login"
	Arrival ArrivalSpec `yaml:"arrival"`
}

// ArrivalSpec represents arrival process specification
type ArrivalSpec struct {
	Type                 string  `yaml:"type"`                             // poisson, uniform, normal, bursty, constant
	RateRPS              float64 `yaml:"rate_rps"`                         // Mean/constant rate in requests per second
	StdDevRPS            float64 `yaml:"stddev_rps,omitempty"`             // Standard deviation for normal distribution
	BurstRateRPS         float64 `yaml:"burst_rate_rps,omitempty"`         // Rate during bursts (for bursty type)
	BurstDurationSeconds float64 `yaml:"burst_duration_seconds,omitempty"` // Duration of burst periods
	QuietDurationSeconds float64 `yaml:"quiet_duration_seconds,omitempty"` // Duration of quiet periods between bursts
}
