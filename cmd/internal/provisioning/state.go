package provisioning

import (
	"strings"
)

// Field names a value captured by a step that later steps depend on.
type Field string

const (
	ProjectId     Field = "project id"
	EnvironmentId Field = "environment id"
	ServiceId     Field = "service id"
)

// Request is the input of a provisioning run.
type Request struct {
	HumanName string
	BuddyName string
	ModelId   string
	// ChannelToken is the optional secondary channel (telegram) bot token.
	ChannelToken string
}

// ProjectName is the name of the project the buddy lives in.
func (r Request) ProjectName() string {
	return strings.TrimSpace(r.HumanName) + "-" + strings.TrimSpace(r.BuddyName)
}

// Warning records an advisory step that failed without stopping the run.
type Warning struct {
	Step  string `json:"step"`
	Cause string `json:"cause"`
}

// Context accumulates what each step captured. A run owns its context exclusively.
type Context struct {
	RunId           string    `json:"run_id"`
	ProjectId       string    `json:"project_id,omitempty"`
	ProjectName     string    `json:"project_name,omitempty"`
	EnvironmentId   string    `json:"environment_id,omitempty"`
	EnvironmentName string    `json:"environment_name,omitempty"`
	ServiceId       string    `json:"service_id,omitempty"`
	VolumeId        string    `json:"volume_id,omitempty"`
	VariablesHash   string    `json:"variables_hash,omitempty"`
	Domain          string    `json:"domain,omitempty"`
	Deployed        bool      `json:"deployed"`
	Warnings        []Warning `json:"warnings,omitempty"`
}

func (c Context) value(field Field) string {
	switch field {
	case ProjectId:
		return c.ProjectId
	case EnvironmentId:
		return c.EnvironmentId
	case ServiceId:
		return c.ServiceId
	default:
		return ""
	}
}

// Missing returns the fields that are still empty.
func (c Context) Missing(fields ...Field) []Field {
	missing := []Field{}
	for _, field := range fields {
		if c.value(field) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// clone copies the context so a transition can never alter the caller's copy.
func (c Context) clone() Context {
	copied := c
	copied.Warnings = append([]Warning(nil), c.Warnings...)
	return copied
}
