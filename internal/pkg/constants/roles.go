package constants

const (
	Admin      = "admin"
	Official   = "official"
	Contractor = "contractor"
	Community  = "community"
)

// ValidRoles is the set of actor roles.
var ValidRoles = []string{Admin, Official, Contractor, Community}

// SelfRegisterRoles may be chosen at registration; admins are seeded only.
var SelfRegisterRoles = []string{Official, Contractor, Community}

// IsValidRole returns true if role is one of the actor roles.
func IsValidRole(role string) bool {
	return contains(ValidRoles, role)
}

// CanSelfRegister returns true if role may be requested at registration.
func CanSelfRegister(role string) bool {
	return contains(SelfRegisterRoles, role)
}

func contains(list []string, v string) bool {
	for _, r := range list {
		if r == v {
			return true
		}
	}
	return false
}

// Project statuses.
const (
	StatusDraft     = "Draft"
	StatusPublished = "Published"
	StatusAwarded   = "Awarded"
	StatusLicensed  = "Licensed"
	StatusCompleted = "Completed"
)

// Bid statuses.
const (
	BidSubmitted = "Submitted"
	BidAwarded   = "Awarded"
	BidRejected  = "Rejected"
)

// Resource status labels.
const (
	ResourceIdentified = "Identified"
	ResourceSampled    = "Sampled"
	ResourceCertified  = "Certified"
	ResourceAllocated  = "Allocated"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Damage severities, lowest first.
var Severities = []string{"Low", "Medium", "High", "Critical"}

func IsValidSeverity(s string) bool {
	return contains(Severities, s)
}

// Community approval signals.
var ApprovalSignals = []string{"support", "neutral", "concern"}

func IsValidApprovalSignal(s string) bool {
	return contains(ApprovalSignals, s)
}
