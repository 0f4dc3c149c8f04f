package identity

// Operation names a protected action checked at the authorization choke point.
type Operation string

const (
	OpManageUsers        Operation = "users.manage"
	OpManageEquipment    Operation = "equipment.manage"
	OpViewEquipment      Operation = "equipment.view"
	OpPlanInterventions  Operation = "interventions.plan"
	OpExecInterventions  Operation = "interventions.execute"
	OpViewInterventions  Operation = "interventions.view"
	OpUploadDocuments    Operation = "documents.upload"
	OpViewDocuments      Operation = "documents.view"
	OpViewAuditLog       Operation = "audit.view"
	OpManageKeyMaterial  Operation = "keys.manage"
	OpViewDashboard      Operation = "dashboard.view"
	OpManageNotification Operation = "notifications.manage"
)

// permissions is the explicit (role, operation) matrix. Anything not listed
// is denied. Admin is granted everything below plus the admin-only entries.
var permissions = map[Role]map[Operation]bool{
	RoleAdmin: {
		OpManageUsers:        true,
		OpManageEquipment:    true,
		OpViewEquipment:      true,
		OpPlanInterventions:  true,
		OpExecInterventions:  true,
		OpViewInterventions:  true,
		OpUploadDocuments:    true,
		OpViewDocuments:      true,
		OpViewAuditLog:       true,
		OpManageKeyMaterial:  true,
		OpViewDashboard:      true,
		OpManageNotification: true,
	},
	RoleManager: {
		OpManageEquipment:    true,
		OpViewEquipment:      true,
		OpPlanInterventions:  true,
		OpViewInterventions:  true,
		OpUploadDocuments:    true,
		OpViewDocuments:      true,
		OpViewDashboard:      true,
		OpManageNotification: true,
	},
	RoleTechnician: {
		OpViewEquipment:     true,
		OpExecInterventions: true,
		OpViewInterventions: true,
		OpUploadDocuments:   true,
		OpViewDocuments:     true,
		OpViewDashboard:     true,
	},
	RoleClient: {
		OpViewEquipment:     true,
		OpViewInterventions: true,
		OpViewDocuments:     true,
	},
}

// Can is the single authorization choke point: it reports whether role is
// allowed to perform op. Unknown roles and unknown operations are denied.
func Can(role Role, op Operation) bool {
	ops, ok := permissions[role]
	if !ok {
		return false
	}
	return ops[op]
}
