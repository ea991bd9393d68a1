package task

// Stages at which a branch can fail.
const (
	StageBuild    = "build"    // subcategory discovery
	StageTraverse = "traverse" // top-N listing extraction
)

type BranchRetryTask struct {
	SeedURL     string `json:"seed_url"`     // Seed whose tree contained the branch
	CategoryURL string `json:"category_url"` // Canonical URL of the failed node
	Depth       int    `json:"depth"`        // Depth of the node in its tree
	Stage       string `json:"stage"`        // "build" or "traverse"
	Error       string `json:"error"`        // Error message from the failure
}

func (t *BranchRetryTask) TaskType() string {
	return "BranchRetryTask"
}

func (t *BranchRetryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
