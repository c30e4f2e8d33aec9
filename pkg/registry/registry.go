// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &reg, nil
}

// Validate checks required fields, durations, error codes and the embedded
// JSON schemas. When implemented is non-empty every completed activity must
// name one of those task types and every one of them must be registered.
func Validate(reg *ActivityRegistry, implemented []string) error {
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	known := make(map[string]bool, len(implemented))
	for _, tt := range implemented {
		known[tt] = true
	}

	var problems []string
	ids := make(map[string]bool)
	for _, activity := range reg.Activities {
		if activity.ID == "" {
			problems = append(problems, "activity missing required field: ID")
			continue
		}
		if ids[activity.ID] {
			problems = append(problems, fmt.Sprintf("duplicate activity ID: %s", activity.ID))
		}
		ids[activity.ID] = true

		problems = append(problems, checkActivity(activity, known)...)
	}

	for _, tt := range implemented {
		if _, ok := reg.Lookup(tt); !ok {
			problems = append(problems, fmt.Sprintf("worker %s is not registered", tt))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("registry invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

func checkActivity(a Activity, known map[string]bool) []string {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf("activity %s: ", a.ID)+fmt.Sprintf(format, args...))
	}

	if a.DisplayName == "" {
		add("missing required field: DisplayName")
	}
	if a.TaskType == "" {
		add("missing required field: TaskType")
	}
	if a.Category == "" {
		add("missing required field: Category")
	}
	if a.Retries < 0 {
		add("retries must not be negative")
	}
	if a.Timeout != "" {
		if d, err := time.ParseDuration(a.Timeout); err != nil || d <= 0 {
			add("invalid timeout %q", a.Timeout)
		}
	}
	if len(known) > 0 && a.ImplementationStatus == StatusCompleted && !known[a.TaskType] {
		add("task type %s has no worker", a.TaskType)
	}
	for _, code := range a.ErrorCodes {
		if !apperrors.IsKnownCode(code) {
			add("unknown error code %s", code)
		}
	}
	for name, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
		if schema == nil {
			continue
		}
		raw, err := json.Marshal(schema)
		if err == nil {
			_, err = validation.Compile(string(raw))
		}
		if err != nil {
			add("%s: %v", name, err)
		}
	}
	return problems
}
