package auth

// RolesFromClaims extracts the requester's role set from token claims. Both
// the flat "roles" claim (our own tokens) and Keycloak's nested
// realm_access.roles are recognized; duplicates are dropped.
func RolesFromClaims(claims map[string]interface{}) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(v interface{}) {
		list, ok := v.([]interface{})
		if !ok {
			return
		}
		for _, r := range list {
			s, ok := r.(string)
			if !ok || s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	add(claims["roles"])
	if ra, ok := claims["realm_access"].(map[string]interface{}); ok {
		add(ra["roles"])
	}
	return out
}
