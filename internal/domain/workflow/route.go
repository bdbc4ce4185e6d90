package workflow

import "strings"

// Principal is one {user, role} entry attached to a route. A principal owns a
// stage when its role matches the stage name case-insensitively.
type Principal struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Role     string `json:"role"`
}

// Route is the department/kind-specific ordered stage sequence plus the
// principals authorized to act on each stage. Stage names are unique within a
// route; the first stage is the initial state and the last is terminal-success.
type Route struct {
	ID         int64       `json:"id"`
	Department string      `json:"department"`
	Kind       string      `json:"kind"`
	Stages     []string    `json:"stages"`
	Principals []Principal `json:"principals"`

	// owners is the resolved StageName -> principal set, built once so stage
	// authorization never re-runs string comparisons per check.
	owners map[string][]Principal
}

// NewRoute builds a route and resolves its stage ownership table
func NewRoute(department, kind string, stages []string, principals []Principal) *Route {
	r := &Route{
		Department: department,
		Kind:       kind,
		Stages:     stages,
		Principals: principals,
	}
	r.ResolveOwners()
	return r
}

// ResolveOwners rebuilds the stage -> owners mapping from Principals.
// Must be called after mutating Stages or Principals.
func (r *Route) ResolveOwners() {
	r.owners = make(map[string][]Principal, len(r.Stages))
	for _, stage := range r.Stages {
		key := strings.ToLower(stage)
		for _, p := range r.Principals {
			if strings.EqualFold(p.Role, stage) {
				r.owners[key] = append(r.owners[key], p)
			}
		}
	}
}

// Owners returns the principals authorized to act on the given stage
func (r *Route) Owners(stage string) []Principal {
	if r.owners == nil {
		r.ResolveOwners()
	}
	return r.owners[strings.ToLower(stage)]
}

// IsOwner returns true if userID may act on the given stage
func (r *Route) IsOwner(stage, userID string) bool {
	for _, p := range r.Owners(stage) {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// StageIndex returns the position of stage in the route, or -1 if absent.
// Matching is case-insensitive, consistent with ownership resolution.
func (r *Route) StageIndex(stage string) int {
	for i, s := range r.Stages {
		if strings.EqualFold(s, stage) {
			return i
		}
	}
	return -1
}

// InitialStage returns the first stage of the route
func (r *Route) InitialStage() string {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[0]
}

// FinalStage returns the last stage of the route
func (r *Route) FinalStage() string {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1]
}

// NextStage returns the stage following the given one, or "" when the given
// stage is the last entry.
func (r *Route) NextStage(stage string) string {
	idx := r.StageIndex(stage)
	if idx < 0 || idx+1 >= len(r.Stages) {
		return ""
	}
	return r.Stages[idx+1]
}

// IsFinalStage returns true if stage is the last entry in the route
func (r *Route) IsFinalStage(stage string) bool {
	idx := r.StageIndex(stage)
	return idx >= 0 && idx == len(r.Stages)-1
}

// RejectionStage returns the stage at which rejection is permitted: the stage
// named "Approve" when the route has one, otherwise the final stage. Clients
// gate their reject control on the same rule.
func (r *Route) RejectionStage() string {
	for _, s := range r.Stages {
		if strings.EqualFold(s, "Approve") {
			return s
		}
	}
	return r.FinalStage()
}

// CommitStage returns the stage requiring a cost commitment, or "" when the
// route has none. Cost capture is keyed off the stage named "Commit".
func (r *Route) CommitStage() string {
	for _, s := range r.Stages {
		if strings.EqualFold(s, "Commit") {
			return s
		}
	}
	return ""
}
