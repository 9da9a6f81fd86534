package authz

import "fmt"

// BuildAllowList derives the resource patterns granted to a successfully
// authenticated caller. With a concrete gateway ID the single pattern is
// scoped to that gateway and stage; without one the gateway position
// falls back to a wildcard. The function is pure and deterministic and
// never returns an empty list.
func BuildAllowList(accountID, region, stage, gatewayID string) []string {
	if gatewayID != "" {
		return []string{
			fmt.Sprintf("arn:aws:execute-api:%s:%s:%s/%s/*", region, accountID, gatewayID, stage),
		}
	}
	return []string{
		fmt.Sprintf("arn:aws:execute-api:%s:%s:*/%s/*", region, accountID, stage),
	}
}
