// Package accesspolicy evaluates the middleware auth gate's
// AUTHORIZED_USERS/AUTHORIZED_ORGS allow-list (spec.md §4.7 step 4) as a
// small embedded Rego policy, the same in-process-policy-string idiom the
// teacher uses for its registry push/pull policy.
package accesspolicy

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/open-policy-agent/opa/rego"
)

type Service struct {
	mu            sync.RWMutex
	currentPolicy string
}

// NewService builds the default policy from the configured allow-lists.
// authorizedUsers and authorizedOrgs are email addresses and email domains
// respectively; authorization passes if the principal's email is in the
// first set or its domain is in the second.
func NewService(authorizedUsers, authorizedOrgs []string) *Service {
	return &Service{currentPolicy: buildPolicy(authorizedUsers, authorizedOrgs)}
}

func buildPolicy(users, orgs []string) string {
	var sb strings.Builder
	sb.WriteString("package fileset.access\n\ndefault allow = false\n\n")
	for _, u := range users {
		fmt.Fprintf(&sb, "allow { input.email == %q }\n", strings.ToLower(u))
	}
	for _, o := range orgs {
		fmt.Fprintf(&sb, "allow { endswith(input.email, \"@%s\") }\n", strings.ToLower(o))
	}
	return sb.String()
}

// EvaluationInput is the principal being authorized.
type EvaluationInput struct {
	Email string `json:"email"`
}

// Allowed reports whether email is authorized per the current policy.
func (s *Service) Allowed(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	policyStr := s.currentPolicy
	s.mu.RUnlock()

	query, err := rego.New(
		rego.Query("data.fileset.access.allow"),
		rego.Module("access.rego", policyStr),
	).PrepareForEval(ctx)
	if err != nil {
		return false, fmt.Errorf("accesspolicy: prepare: %w", err)
	}

	results, err := query.Eval(ctx, rego.EvalInput(EvaluationInput{Email: strings.ToLower(email)}))
	if err != nil {
		return false, fmt.Errorf("accesspolicy: eval: %w", err)
	}
	if len(results) == 0 {
		return false, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("accesspolicy: unexpected result type")
	}
	return allowed, nil
}
