package operators

import "time"

// Operator is a listener-station operator account, mapped from OIDC claims.
// Roles are granted server-side and merged into the requester's role set on
// every request; the admin role normally lives here rather than in tokens.
type Operator struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Sub       string    `bson:"sub" json:"sub"` // OIDC subject
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	Roles     []string  `bson:"roles" json:"roles"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
