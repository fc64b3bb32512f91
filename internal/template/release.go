package template

// Release is an unsaved release assembled for a render. It has no store
// identity and is discarded once the render returns.
type Release struct {
	ProjectName      string
	ProjectPermalink string
	ImageRepository  string
	GitRef           string
	GitSHA           string
	Author           string
	// Builds is always empty for verification renders.
	Builds       []string
	DeployGroups []DeployGroup
}

// DeployGroup is the deploy group a release targets.
type DeployGroup struct {
	Name        string
	Environment string
	Deleted     bool
}

// ReleaseDoc is the unsaved per role and deploy group document of a Release.
type ReleaseDoc struct {
	Release     Release
	RoleName    string
	ServiceName string
	DeployGroup DeployGroup

	Replicas    int
	RequestsCPU float64
	// LimitsCPU is nil when the workload runs without a CPU limit.
	LimitsCPU      *float64
	RequestsMemory int
	LimitsMemory   int
	DeleteResource bool
}

// Options selects what a render produces.
type Options struct {
	// Verification adds the auxiliary verification documents.
	Verification bool
}
