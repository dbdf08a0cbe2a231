// Package db contains database models for the authorization service.
// These models map to the schema defined in migrations/.
package db

import "time"

// User represents a principal: an IAM user or service account. HRN is the
// primary key, stored in its canonical string form (§4.1).
type User struct {
	HRN                string    `db:"hrn" json:"hrn"`
	Name               string    `db:"name" json:"name"`
	Email              string    `db:"email" json:"email"`
	GroupHRNs          []string  `db:"-" json:"groupHrns"`
	AttachedPolicyHRNs []string  `db:"-" json:"attachedPolicyHrns"`
	Tags               map[string]string `db:"-" json:"tags"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}

// Group represents an IAM group.
type Group struct {
	HRN                string            `db:"hrn" json:"hrn"`
	Name               string            `db:"name" json:"name"`
	AttachedPolicyHRNs []string          `db:"-" json:"attachedPolicyHrns"`
	Tags               map[string]string `db:"-" json:"tags"`
	CreatedAt          time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updatedAt"`
}

// IamPolicy represents an IAM policy's Cedar source.
type IamPolicy struct {
	HRN         string    `db:"hrn" json:"hrn"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	PolicyText  string    `db:"policy_text" json:"policyText"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Account represents an organization account: a leaf of the org tree.
type Account struct {
	HRN             string    `db:"hrn" json:"hrn"`
	Name            string    `db:"name" json:"name"`
	ParentOuHRN     *string   `db:"parent_ou_hrn" json:"parentOuHrn,omitempty"`
	AttachedScpHRNs []string  `db:"-" json:"attachedScpHrns"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// Ou represents an organizational unit: an inner node of the org tree.
type Ou struct {
	HRN             string    `db:"hrn" json:"hrn"`
	Name            string    `db:"name" json:"name"`
	ParentHRN       *string   `db:"parent_hrn" json:"parentHrn,omitempty"`
	AttachedScpHRNs []string  `db:"-" json:"attachedScpHrns"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// Scp represents a Service Control Policy's Cedar source.
type Scp struct {
	HRN       string    `db:"hrn" json:"hrn"`
	Name      string    `db:"name" json:"name"`
	Document  string    `db:"document" json:"document"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
