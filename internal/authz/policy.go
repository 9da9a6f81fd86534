package authz

// Effect is the outcome of an authorization decision.
type Effect string

// Decision effects.
const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Decision is the structured outcome of one authorization evaluation.
// It is created fresh per request and never persisted.
type Decision struct {
	// PrincipalID is the authenticated user ID on allow, or the
	// anonymous sentinel on deny.
	PrincipalID string

	// Effect is Allow or Deny.
	Effect Effect

	// Resources are the granted resource patterns. On allow this is the
	// full configured allow-list; on deny it is exactly the requested
	// resource, never broadened.
	Resources []string

	// Context carries caller identity forward to downstream consumers.
	// Present only on allow.
	Context map[string]string
}

// Allowed reports whether the decision grants access.
func (d *Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// Policy is the wire shape of a decision as consumed by the gateway.
type Policy struct {
	PrincipalID    string            `json:"principalId"`
	PolicyDocument PolicyDocument    `json:"policyDocument"`
	Context        map[string]string `json:"context,omitempty"`
}

// PolicyDocument is the policy body of a Policy.
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement grants or denies one resource pattern.
type Statement struct {
	Action   string `json:"Action"`
	Effect   string `json:"Effect"`
	Resource string `json:"Resource"`
}

// ToPolicy serializes the decision into the consuming gateway's wire
// shape, one statement per resource.
func (d *Decision) ToPolicy() *Policy {
	statements := make([]Statement, 0, len(d.Resources))
	for _, resource := range d.Resources {
		statements = append(statements, Statement{
			Action:   ActionInvoke,
			Effect:   string(d.Effect),
			Resource: resource,
		})
	}

	return &Policy{
		PrincipalID: d.PrincipalID,
		PolicyDocument: PolicyDocument{
			Version:   PolicyVersion,
			Statement: statements,
		},
		Context: d.Context,
	}
}
