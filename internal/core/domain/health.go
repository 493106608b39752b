package domain

// ServiceStatus is the reachability of one external dependency.
type ServiceStatus struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	Running bool   `json:"running"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthReport collects the status of every dependency.
type HealthReport struct {
	Services []ServiceStatus `json:"services"`
}

// Healthy returns true when every service is running.
func (r HealthReport) Healthy() bool {
	for _, s := range r.Services {
		if !s.Running {
			return false
		}
	}
	return true
}
